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
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cartwavehq/cartwave-export/pkg/version"
)

// maxResponseBytes caps API response bodies to prevent excessive memory usage.
const maxResponseBytes = 10 * 1024 * 1024 // 10MB

// newHTTPClient builds the HTTP client shared by the REST client and token
// sources, with connection pooling tuned for a sequence of API calls against
// a single host.
func newHTTPClient(rt http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: rt,
	}
}

// baseTransport returns the pooled transport underneath the auth layer.
func baseTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}
}

// authTransport adds authentication header and safety limits to HTTP requests
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	// Add auth header
	req.Header.Set("Authorization", "Bearer "+t.token)

	// Add user agent for identification
	req.Header.Set("User-Agent", fmt.Sprintf("cartwave-export/%s", version.Version))

	// Execute the request
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Apply response size limit
	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	// Calculate how much we can read
	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// apiError is an HTTP-level failure from the platform. It carries the status
// code for typed classification by the error inspector.
type apiError struct {
	status int
	url    string
	body   string
}

func (e *apiError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%s returned status %d", e.url, e.status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.url, e.status, e.body)
}

// HTTPStatus implements apierror.StatusCoder.
func (e *apiError) HTTPStatus() int { return e.status }

// readErrorBody drains a short error payload for diagnostics, tolerating
// bodies that are not valid UTF-8 or JSON.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	return string(data)
}
