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
	"strings"
	"time"

	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
	"github.com/cartwavehq/cartwave-export/pkg/version"
)

// StaticTokenSource wraps a pre-supplied access token. No validation happens
// at resolve time; an invalid token surfaces as an auth error on the first
// page request.
type StaticTokenSource struct {
	Token string
}

// NewStaticTokenSource creates a token source around an existing access token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{Token: token}
}

// Resolve implements TokenSource.
func (s *StaticTokenSource) Resolve(_ context.Context) (*Credentials, error) {
	if s.Token == "" {
		return nil, fmt.Errorf("access token is empty: %w", cwerrors.ErrAuth)
	}
	return &Credentials{AccessToken: s.Token}, nil
}

// ClientCredentialsSource obtains an access token through the OAuth
// client-credentials flow against the platform's auth service. The token is
// scoped to manage a single project.
type ClientCredentialsSource struct {
	authURL      string
	clientID     string
	clientSecret string
	projectKey   string
	httpClient   *http.Client
}

// NewClientCredentialsSource creates a token source that exchanges client
// credentials for a project-scoped access token at {authURL}/oauth/token.
func NewClientCredentialsSource(authURL, clientID, clientSecret, projectKey string) *ClientCredentialsSource {
	return &ClientCredentialsSource{
		authURL:      strings.TrimSuffix(authURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		projectKey:   projectKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// tokenResponse is the success payload of the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Resolve implements TokenSource. Every failure mode, including an
// unreachable auth host, reports as an authentication error so the caller
// can fail fast with the right exit code.
func (s *ClientCredentialsSource) Resolve(ctx context.Context) (*Credentials, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return nil, fmt.Errorf("client credentials are incomplete. Set both CARTWAVE_CLIENT_ID and CARTWAVE_CLIENT_SECRET: %w", cwerrors.ErrAuth)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "manage_project:"+s.projectKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", fmt.Sprintf("cartwave-export/%s", version.Version))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint unreachable at %s: %v: %w", s.authURL, err, cwerrors.ErrAuth)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		return nil, fmt.Errorf("token exchange rejected with status %d: %s. Check the client ID, secret, and project key: %w",
			resp.StatusCode, strings.TrimSpace(body), cwerrors.ErrAuth)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("token endpoint returned malformed JSON: %v: %w", err, cwerrors.ErrAuth)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token: %w", cwerrors.ErrAuth)
	}

	creds := &Credentials{
		AccessToken: tok.AccessToken,
		Scope:       tok.Scope,
	}
	if tok.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return creds, nil
}
