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
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cartwavehq/cartwave-export/internal/apierror"
	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
)

// RESTClient implements the Client interface against the platform's REST API.
// It is bound to one project and one resolved token for the lifetime of an
// export run. Pagination state lives with the caller; the client is stateless
// between calls.
type RESTClient struct {
	baseURL    string
	projectKey string
	httpClient *http.Client
	inspector  apierror.Inspector
}

// NewRESTClient creates a platform client for the given project. The client
// is configured with:
//   - Bearer authentication via the provided token
//   - Custom base URL (e.g., for self-hosted or regional deployments)
//   - Response size limiting to prevent memory issues
//   - User-Agent header for API compliance
//   - Connection pooling tuned for sequential page requests
func NewRESTClient(baseURL, projectKey, token string) *RESTClient {
	httpClient := newHTTPClient(&authTransport{
		token: token,
		base:  baseTransport(),
	})

	return &RESTClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		projectKey: projectKey,
		httpClient: httpClient,
		inspector:  apierror.NewInspector(),
	}
}

// pagedResponse mirrors the platform's paged query envelope. Results stay as
// raw records; the flattener interprets their attributes.
type pagedResponse struct {
	Offset  int64    `json:"offset"`
	Limit   int      `json:"limit"`
	Count   int      `json:"count"`
	Total   int64    `json:"total"`
	Results []Record `json:"results"`
}

// FetchDiscountCodes retrieves one page of discount codes. The request
// carries limit, offset, and, when set, the predicate as the `where`
// parameter, passed through verbatim. The response is decoded with
// json.Number so numeric attribute values keep their canonical text.
func (c *RESTClient) FetchDiscountCodes(ctx context.Context, opts FetchOptions) (*Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.FormatInt(opts.Offset, 10))
	if opts.Predicate != "" {
		query.Set("where", opts.Predicate)
	}

	endpoint := fmt.Sprintf("%s/%s/discount-codes?%s", c.baseURL, c.projectKey, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building page request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(&apiError{
			status: resp.StatusCode,
			url:    c.baseURL + "/" + c.projectKey + "/discount-codes",
			body:   strings.TrimSpace(readErrorBody(resp.Body)),
		})
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload pagedResponse
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding page at offset %d: %w", opts.Offset, err)
	}

	return &Page{
		Offset:  payload.Offset,
		Limit:   payload.Limit,
		Count:   payload.Count,
		Total:   payload.Total,
		Results: payload.Results,
	}, nil
}

// mapError maps transport and API errors to domain errors with actionable messages
func (c *RESTClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("platform authorization failed (%v). Provide a valid token via --access-token or the CARTWAVE_ACCESS_TOKEN environment variable, or configure client credentials: %w", err, cwerrors.ErrAuth)
	}

	if c.inspector.IsNotFoundError(err) {
		return fmt.Errorf("project %q not found. Check the project key and your access permissions: %w", c.projectKey, err)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to the platform API. Check your internet connection and try again: %w", err)
	}

	// Generic error
	return fmt.Errorf("failed to fetch discount codes: %w", err)
}
