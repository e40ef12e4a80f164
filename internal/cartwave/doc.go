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

// Package cartwave provides a client for the CartWave commerce platform API
// to fetch discount-code data. It abstracts credential resolution and the
// paginated query endpoint behind a small interface with support for
// predicate filtering and error classification.
//
// The package includes:
//   - A Client interface for fetching pages of discount codes
//   - A REST implementation over net/http with auth and size-limit transports
//   - Token sources for static access tokens and the OAuth client-credentials flow
//   - Mock client for testing
//
// Basic usage:
//
//	source := cartwave.NewClientCredentialsSource(authURL, clientID, clientSecret, "my-project")
//	creds, err := source.Resolve(ctx)
//	if err != nil {
//	    // Handle error
//	}
//	client := cartwave.NewRESTClient(apiURL, "my-project", creds.AccessToken)
//	page, err := client.FetchDiscountCodes(ctx, cartwave.FetchOptions{Limit: 500})
//	if err != nil {
//	    // Handle error
//	}
//	for _, code := range page.Results {
//	    // Process discount code
//	}
package cartwave
