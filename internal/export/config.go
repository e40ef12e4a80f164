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

package export

import (
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
	"github.com/cartwavehq/cartwave-export/internal/fieldspec"
)

// Config carries everything one export run needs. The CLI builds it from
// config file, environment, and flags; library callers fill it directly.
type Config struct {
	// ProjectKey selects the platform project to export from.
	ProjectKey string

	// APIURL is the platform API base URL.
	APIURL string

	// AuthURL is the OAuth token endpoint base URL. Only used when no
	// access token is supplied.
	AuthURL string

	// AccessToken authenticates directly when set. When empty, ClientID
	// and ClientSecret drive a client-credentials exchange against AuthURL.
	AccessToken  string
	ClientID     string
	ClientSecret string

	// BatchSize is the page size for platform queries, capped at 500.
	BatchSize int

	// Format selects the serialization: "csv" or "json".
	Format string

	// Delimiter separates CSV columns and template header tokens.
	Delimiter string

	// MultiValueDelimiter joins sequence values inside a single cell.
	MultiValueDelimiter string

	// Language is the BCP-47 tag used to resolve localized strings.
	Language string

	// Predicate is an optional platform query predicate, passed to the
	// API verbatim.
	Predicate string

	// TemplatePath points at a template file whose first line defines the
	// exported fields. Empty means no template.
	TemplatePath string

	// Fields overrides field resolution entirely when non-empty. It wins
	// over TemplatePath and the format defaults.
	Fields []string

	// Output is the destination path, recorded in run metadata. The sink
	// itself is handed to Run by the caller. Empty means stdout.
	Output string

	// MetadataDir is where run metadata lands. Empty disables metadata.
	MetadataDir string
}

// Result summarizes a completed export.
type Result struct {
	// Rows is the number of records written to the sink.
	Rows int

	// Pages is the number of pages fetched, including a trailing empty one.
	Pages int

	// APICalls is the number of platform requests issued.
	APICalls int

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration

	// Fields is the resolved field list the rows were projected onto.
	Fields []string
}

// Validate checks the run parameters before any network or file activity.
// All violations wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ProjectKey == "" {
		return fmt.Errorf("project key is required: %w", cwerrors.ErrInvalidConfig)
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL cannot be empty: %w", cwerrors.ErrInvalidConfig)
	}
	if c.AccessToken == "" && c.AuthURL == "" {
		return fmt.Errorf("auth URL cannot be empty without an access token: %w", cwerrors.ErrInvalidConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d: %w", c.BatchSize, cwerrors.ErrInvalidConfig)
	}
	if c.BatchSize > 500 {
		return fmt.Errorf("batch size %d exceeds platform query limit of 500: %w", c.BatchSize, cwerrors.ErrInvalidConfig)
	}
	if c.Format != "csv" && c.Format != "json" {
		return fmt.Errorf("format must be csv or json, got %q: %w", c.Format, cwerrors.ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q: %w", c.Delimiter, cwerrors.ErrInvalidConfig)
	}
	if c.MultiValueDelimiter == "" {
		return fmt.Errorf("multi-value delimiter cannot be empty: %w", cwerrors.ErrInvalidConfig)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("language %q is not a valid BCP-47 tag: %w", c.Language, cwerrors.ErrInvalidConfig)
	}
	if len(c.Fields) > 0 {
		if err := fieldspec.Validate(c.Fields); err != nil {
			return err
		}
	}
	return nil
}

// delimiterRune returns the CSV delimiter as a rune. Validate guarantees
// exactly one rune is present.
func (c *Config) delimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
