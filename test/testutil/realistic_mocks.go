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

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// PlatformLikeMockServer creates a mock server that behaves like the real
// CartWave platform API
type PlatformLikeMockServer struct {
	*httptest.Server
	mu                 sync.RWMutex
	rateLimitRemaining int32
	requestHistory     []PageRequest
	codes              []map[string]any
}

// PageRequest represents a parsed discount-code page request
type PageRequest struct {
	Limit     int
	Offset    int64
	Where     string
	Timestamp time.Time
}

// NewPlatformLikeMockServer creates a realistic platform mock backed by
// totalCodes generated discount codes.
func NewPlatformLikeMockServer(t *testing.T, totalCodes int) *PlatformLikeMockServer {
	t.Helper()

	mock := &PlatformLikeMockServer{
		rateLimitRemaining: 1000,
	}

	// Pre-generate the dataset so every page sees the same records. Every
	// fourth code is inactive, the way a real project mixes live and
	// retired campaigns.
	for i := 1; i <= totalCodes; i++ {
		code := NewDiscountCodeBuilder(i).Build()
		if i%4 == 0 {
			code["isActive"] = false
		}
		mock.codes = append(mock.codes, code)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Token exchange endpoint
		if strings.HasSuffix(r.URL.Path, "/oauth/token") {
			if user, pass, ok := r.BasicAuth(); !ok || user == "" || pass == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error":             "invalid_client",
					"error_description": "Please provide valid client credentials",
				})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": ExchangedToken,
				"token_type":   "Bearer",
				"expires_in":   172800,
			})
			return
		}

		// Validate request method and path
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/discount-codes") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		// Check authorization
		if !validBearer(r) {
			writeAuthError(w)
			return
		}

		limit, offset := parseWindow(r)
		req := PageRequest{
			Limit:     limit,
			Offset:    offset,
			Where:     r.URL.Query().Get("where"),
			Timestamp: time.Now(),
		}

		// Store request history
		mock.mu.Lock()
		mock.requestHistory = append(mock.requestHistory, req)
		mock.mu.Unlock()

		// Check rate limit
		remaining := atomic.AddInt32(&mock.rateLimitRemaining, -1)
		if remaining < 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 429,
				"message":    "Too many requests",
			})
			return
		}

		// The platform caps page sizes at 500
		if limit > 500 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 400,
				"message":    "limit must be between 1 and 500",
			})
			return
		}

		results := mock.filterCodes(req.Where)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(windowResponse(results, offset, limit))
	}))

	mock.Server = server
	t.Cleanup(mock.Close)
	return mock
}

// filterCodes applies the small subset of the platform predicate language the
// tests exercise. The exporter itself never interprets predicates; it only
// forwards them.
func (m *PlatformLikeMockServer) filterCodes(where string) []map[string]any {
	if where == "" {
		return m.codes
	}

	filtered := []map[string]any{}
	for _, code := range m.codes {
		if matchesPredicate(code, where) {
			filtered = append(filtered, code)
		}
	}
	return filtered
}

func matchesPredicate(code map[string]any, where string) bool {
	for _, clause := range strings.Split(where, " and ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "code"):
			want := strings.Trim(strings.TrimSpace(strings.TrimPrefix(clause, "code =")), `"`)
			if code["code"] != want {
				return false
			}
		case strings.HasPrefix(clause, "isActive"):
			want := strings.TrimSpace(strings.TrimPrefix(clause, "isActive =")) == "true"
			if code["isActive"] != want {
				return false
			}
		}
	}
	return true
}

// GetRequestHistory returns the history of page requests
func (m *PlatformLikeMockServer) GetRequestHistory() []PageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]PageRequest, len(m.requestHistory))
	copy(history, m.requestHistory)
	return history
}

// ResetRateLimit resets the rate limit counter
func (m *PlatformLikeMockServer) ResetRateLimit() {
	atomic.StoreInt32(&m.rateLimitRemaining, 1000)
}

// SetRateLimit sets a specific rate limit
func (m *PlatformLikeMockServer) SetRateLimit(remaining int32) {
	atomic.StoreInt32(&m.rateLimitRemaining, remaining)
}

// FailureMode selects how a FlakyPlatformServer breaks a request.
type FailureMode int

const (
	// FailBadGateway responds with 502.
	FailBadGateway FailureMode = iota
	// FailServiceUnavailable responds with 503.
	FailServiceUnavailable
	// FailCorruptJSON truncates the response body mid-object.
	FailCorruptJSON
	// FailDisconnect drops the connection without writing a response.
	FailDisconnect
)

// FlakyPlatformServer serves a fixed number of full pages and then fails
// every later request with the configured mode. The exporter never retries,
// so one injected failure is enough to abort an export at a known page.
type FlakyPlatformServer struct {
	*httptest.Server
	mode      FailureMode
	goodPages int32
	requests  int32
}

// NewFlakyPlatformServer creates a server that fails after goodPages
// successful page responses. With goodPages zero the very first page fails.
func NewFlakyPlatformServer(t *testing.T, goodPages int, mode FailureMode) *FlakyPlatformServer {
	t.Helper()

	mock := &FlakyPlatformServer{
		mode:      mode,
		goodPages: int32(goodPages),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/oauth/token") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": ExchangedToken,
				"token_type":   "Bearer",
				"expires_in":   172800,
			})
			return
		}

		n := atomic.AddInt32(&mock.requests, 1)
		if n <= mock.goodPages {
			// Serve full pages so the exporter keeps paging until the
			// injected failure.
			limit, offset := parseWindow(r)
			resp := GenerateCodesResponse(int(offset)+1, int(offset)+limit, 100000)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
			return
		}

		switch mock.mode {
		case FailBadGateway:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("Bad Gateway"))
		case FailServiceUnavailable:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service Unavailable"))
		case FailCorruptJSON:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"offset":0,"limit":20,"count":20,"results":[{"id":"dc-`))
		case FailDisconnect:
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	mock.Server = server
	t.Cleanup(mock.Close)
	return mock
}

// GetRequestCount returns the number of page requests received
func (f *FlakyPlatformServer) GetRequestCount() int32 {
	return atomic.LoadInt32(&f.requests)
}
