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

import "time"

// Record is a single discount code exactly as returned by the platform API.
// It is kept as a decoded JSON object rather than a fixed struct because the
// attribute set varies by project (custom fields, references) and the
// flattener resolves attributes by name at runtime. Numeric values are
// json.Number so that scalar text survives without float rounding.
type Record map[string]any

// Page represents one page of discount codes from the paged query endpoint.
// Count is the number of records actually returned; a page with fewer than
// the requested limit signals that the collection is exhausted. Total is the
// server's count of all matching records and is informational only.
type Page struct {
	Offset  int64
	Limit   int
	Count   int
	Total   int64
	Results []Record
}

// FetchOptions configures a single page request.
type FetchOptions struct {
	// Limit controls how many discount codes to request per page.
	// Defaults to 500 if not specified. Maximum is 500 per the platform's
	// query limits.
	Limit int

	// Offset is the number of records to skip. Advance it by Limit to
	// fetch subsequent pages.
	Offset int64

	// Predicate is an optional platform query predicate passed through
	// verbatim, e.g. `cartDiscount(id="...")` or `code="SUMMER*"`.
	// Empty means no filtering.
	Predicate string
}

// Default values for fetch operations
const (
	defaultPageSize = 500
	maxPageSize     = 500
)

// Credentials holds a resolved bearer token. ExpiresAt is zero for static
// tokens whose lifetime is unknown to the tool. Credentials are read-only
// after resolution; there is no automatic refresh.
type Credentials struct {
	AccessToken string
	ExpiresAt   time.Time
	Scope       string
}
