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

package cartwave

import (
	"context"
	"encoding/json"
	"fmt"

	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
)

// MockClient is a mock implementation of the Client interface for testing.
// It serves pages out of an in-memory collection using the same offset/limit
// window semantics as the platform, so pagination termination behaves exactly
// like the real endpoint.
type MockClient struct {
	// Codes is the full collection served in pages.
	Codes []Record

	// Error to return on every call
	Error error

	// Behavior flags
	ShouldFailAuth    bool
	ShouldFailNetwork bool

	// FailAtOffset makes calls fail once the requested offset reaches this
	// value. Zero disables the behavior.
	FailAtOffset int64

	// Track calls for verification
	CallCount int
	LastOpts  FetchOptions
}

// NewMockClient creates a new mock client with default test data
func NewMockClient() *MockClient {
	return &MockClient{
		Codes: GenerateTestCodes(3),
	}
}

// FetchDiscountCodes implements the Client interface
func (m *MockClient) FetchDiscountCodes(ctx context.Context, opts FetchOptions) (*Page, error) {
	// Track the call
	m.CallCount++
	m.LastOpts = opts

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Simulate various error conditions
	if m.ShouldFailAuth {
		return nil, fmt.Errorf("authentication failed: %w", cwerrors.ErrAuth)
	}

	if m.ShouldFailNetwork {
		return nil, fmt.Errorf("network timeout: dial tcp: connection refused")
	}

	if m.FailAtOffset > 0 && opts.Offset >= m.FailAtOffset {
		return nil, fmt.Errorf("simulated failure at offset %d", opts.Offset)
	}

	// Return configured error if set
	if m.Error != nil {
		return nil, m.Error
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	// Serve the requested window
	start := opts.Offset
	if start > int64(len(m.Codes)) {
		start = int64(len(m.Codes))
	}
	end := start + int64(limit)
	if end > int64(len(m.Codes)) {
		end = int64(len(m.Codes))
	}
	window := m.Codes[start:end]

	return &Page{
		Offset:  opts.Offset,
		Limit:   limit,
		Count:   len(window),
		Total:   int64(len(m.Codes)),
		Results: window,
	}, nil
}

// GenerateTestCodes creates n sample discount-code records shaped like the
// platform's responses, with json.Number for numeric values so canonical
// scalar rendering is exercised the same way as with the real decoder.
func GenerateTestCodes(n int) []Record {
	codes := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		codes = append(codes, Record{
			"id":      fmt.Sprintf("dc-%04d", i),
			"version": json.Number("1"),
			"code":    fmt.Sprintf("SAVE%d", i),
			"name": map[string]any{
				"en": fmt.Sprintf("Save %d", i),
				"de": fmt.Sprintf("Spare %d", i),
			},
			"description": map[string]any{
				"en": fmt.Sprintf("Test discount %d", i),
			},
			"cartDiscounts": []any{
				map[string]any{"typeId": "cart-discount", "id": fmt.Sprintf("cd-%04d", i)},
			},
			"groups":          []any{"summer", "newsletter"},
			"isActive":        i%2 == 1,
			"validFrom":       "2025-06-01T00:00:00.000Z",
			"validUntil":      "2025-08-31T23:59:59.000Z",
			"maxApplications": json.Number("100"),
		})
	}
	return codes
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithCodes sets the collection the mock serves
func WithCodes(codes []Record) MockClientOption {
	return func(m *MockClient) {
		m.Codes = codes
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// WithFailAtOffset makes the client fail once the requested offset reaches n
func WithFailAtOffset(n int64) MockClientOption {
	return func(m *MockClient) {
		m.FailAtOffset = n
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
