// Copyright 2025 CartWave, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil provides common test helpers for cartwave-export
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// TestToken is the static bearer token the mock platform accepts.
const TestToken = "test-token"

// ExchangedToken is the token the mock auth endpoint hands out for valid
// client credentials.
const ExchangedToken = "mock-access-token"

// MockPlatform provides common mock platform configurations for testing. It
// serves the OAuth token endpoint and paged discount-code queries, and counts
// what the CLI asked for.
type MockPlatform struct {
	*httptest.Server

	pageRequests int32
	tokenCalls   int32

	mu        sync.Mutex
	lastWhere string
	lastLimit int
}

// PageRequests returns how many discount-code page requests were served.
func (m *MockPlatform) PageRequests() int {
	return int(atomic.LoadInt32(&m.pageRequests))
}

// TokenCalls returns how many token exchanges were attempted.
func (m *MockPlatform) TokenCalls() int {
	return int(atomic.LoadInt32(&m.tokenCalls))
}

// LastWhere returns the predicate received on the most recent page request.
func (m *MockPlatform) LastWhere() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastWhere
}

// LastLimit returns the limit received on the most recent page request.
func (m *MockPlatform) LastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLimit
}

// NewMockPlatform creates a mock platform around a custom page handler. The
// token endpoint and request accounting come for free; the handler only has
// to produce page responses.
func NewMockPlatform(t *testing.T, pageHandler http.HandlerFunc) *MockPlatform {
	t.Helper()

	m := &MockPlatform{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			m.serveToken(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/discount-codes") {
			m.recordPageRequest(r)
			pageHandler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// NewPlatformServer creates a mock platform that serves the given codes with
// standard limit/offset windowing. This is the workhorse for happy-path
// export tests.
func NewPlatformServer(t *testing.T, codes []map[string]any) *MockPlatform {
	t.Helper()

	return NewMockPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		if !validBearer(r) {
			writeAuthError(w)
			return
		}

		limit, offset := parseWindow(r)
		response := windowResponse(codes, offset, limit)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
}

// NewErrorServer creates a mock platform whose page endpoint always returns
// the specified status code.
func NewErrorServer(t *testing.T, statusCode int) *MockPlatform {
	t.Helper()

	return NewMockPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewFailAtPageServer creates a mock platform that serves codes normally
// until the Nth page request (1-based), from which point every request
// returns errorCode. The exporter never retries, so this simulates a platform
// outage in the middle of a long export.
func NewFailAtPageServer(t *testing.T, codes []map[string]any, failAtPage, errorCode int) *MockPlatform {
	t.Helper()

	var served int32
	return NewMockPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		if !validBearer(r) {
			writeAuthError(w)
			return
		}

		count := atomic.AddInt32(&served, 1)
		if int(count) >= failAtPage {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}

		limit, offset := parseWindow(r)
		response := windowResponse(codes, offset, limit)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
}

// serveToken implements the client-credentials exchange. Any non-empty basic
// auth pair is accepted; tests that need rejection use a bad bearer instead.
func (m *MockPlatform) serveToken(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.tokenCalls, 1)

	id, secret, ok := r.BasicAuth()
	if r.Method != http.MethodPost || !ok || id == "" || secret == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"access_token":"`+ExchangedToken+`","token_type":"Bearer","expires_in":172800}`)
}

func (m *MockPlatform) recordPageRequest(r *http.Request) {
	atomic.AddInt32(&m.pageRequests, 1)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	m.mu.Lock()
	m.lastWhere = r.URL.Query().Get("where")
	m.lastLimit = limit
	m.mu.Unlock()
}

func validBearer(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return auth == "Bearer "+TestToken || auth == "Bearer "+ExchangedToken
}

func writeAuthError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"statusCode":401,"message":"invalid_token"}`)
}

func parseWindow(r *http.Request) (limit int, offset int64) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	return limit, offset
}

// windowResponse slices codes to the requested window and wraps it in the
// platform's paged envelope.
func windowResponse(codes []map[string]any, offset int64, limit int) map[string]any {
	start := offset
	if start > int64(len(codes)) {
		start = int64(len(codes))
	}
	end := start + int64(limit)
	if end > int64(len(codes)) {
		end = int64(len(codes))
	}
	window := codes[start:end]

	return map[string]any{
		"offset":  offset,
		"limit":   limit,
		"count":   len(window),
		"total":   len(codes),
		"results": window,
	}
}

// GenerateCodesResponse generates a paged envelope holding codes numbered
// startNum through endNum out of a collection of total codes.
func GenerateCodesResponse(startNum, endNum, total int) map[string]any {
	results := make([]map[string]any, 0)
	for i := startNum; i <= endNum; i++ {
		results = append(results, NewDiscountCodeBuilder(i).Build())
	}

	return map[string]any{
		"offset":  startNum - 1,
		"limit":   len(results),
		"count":   len(results),
		"total":   total,
		"results": results,
	}
}

// AssertPageRequest validates a discount-code page request structure
func AssertPageRequest(t *testing.T, r *http.Request) {
	t.Helper()
	if !strings.HasSuffix(r.URL.Path, "/discount-codes") {
		t.Errorf("Unexpected path: %s", r.URL.Path)
	}
	if r.Method != http.MethodGet {
		t.Errorf("Expected GET method, got: %s", r.Method)
	}
	if r.URL.Query().Get("limit") == "" {
		t.Error("Expected limit query parameter")
	}
	if r.URL.Query().Get("offset") == "" {
		t.Error("Expected offset query parameter")
	}
}
