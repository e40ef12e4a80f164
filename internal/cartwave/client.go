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

import "context"

// Client defines the interface for querying the platform's discount codes.
// This interface allows for easy mocking in tests.
type Client interface {
	// FetchDiscountCodes retrieves one page of discount codes for the
	// project the client is bound to. It supports offset-based pagination
	// through opts.Offset and predicate filtering through opts.Predicate.
	FetchDiscountCodes(ctx context.Context, opts FetchOptions) (*Page, error)
}

// TokenSource resolves credentials for the platform API. Implementations
// cover pre-supplied access tokens and the OAuth client-credentials flow.
type TokenSource interface {
	// Resolve produces credentials ready for use as a bearer token.
	// Any failure, including an unreachable auth endpoint, is reported
	// as an authentication error.
	Resolve(ctx context.Context) (*Credentials, error)
}
