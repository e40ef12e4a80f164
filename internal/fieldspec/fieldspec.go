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

// Package fieldspec resolves the ordered list of fields an export emits.
// The list comes from the first line of a user-supplied template file, an
// explicit field list, or per-format defaults, in that order of preference.
// Only the first template line is ever read; the rest of the file is ignored.
package fieldspec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
)

// FieldSpec is the ordered list of output field names. It is resolved once
// before the first page request and immutable afterward.
type FieldSpec []string

// defaultCSVFields is the import-compatible column set for CSV exports.
var defaultCSVFields = FieldSpec{
	"code",
	"name",
	"description",
	"cartDiscounts",
	"cartPredicate",
	"groups",
	"isActive",
	"validFrom",
	"validUntil",
	"maxApplications",
	"maxApplicationsPerCustomer",
}

// defaultJSONFields adds identity and audit attributes that downstream
// tooling expects from JSON exports.
var defaultJSONFields = append(FieldSpec{
	"id",
	"version",
}, append(append(FieldSpec{}, defaultCSVFields...),
	"createdAt",
	"lastModifiedAt",
)...)

// Default returns the default field set for the given export format.
func Default(format string) FieldSpec {
	if format == "csv" {
		return append(FieldSpec{}, defaultCSVFields...)
	}
	return append(FieldSpec{}, defaultJSONFields...)
}

// FromTemplate reads exactly the first line from r and splits it on the
// delimiter. A line terminated by EOF rather than a newline is accepted, and
// a trailing carriage return is stripped so CRLF templates work. Tokens are
// trimmed of surrounding whitespace.
//
// Read failures map to ErrTemplateRead; a missing or blank header line maps
// to ErrTemplateEmpty.
func FromTemplate(r io.Reader, delimiter string) (FieldSpec, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading template header: %v: %w", err, cwerrors.ErrTemplateRead)
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("template has no header line: %w", cwerrors.ErrTemplateEmpty)
	}

	tokens := strings.Split(line, delimiter)
	fields := make(FieldSpec, 0, len(tokens))
	empty := true
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			empty = false
		}
		fields = append(fields, tok)
	}
	if empty {
		return nil, fmt.Errorf("template header has no field names: %w", cwerrors.ErrTemplateEmpty)
	}

	return fields, nil
}

// FromTemplateFile opens path, reads the first line, and closes the file
// immediately, regardless of outcome. The file handle is never held across
// the export itself.
func FromTemplateFile(path, delimiter string) (FieldSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template %s: %v: %w", path, err, cwerrors.ErrTemplateRead)
	}
	defer f.Close()

	return FromTemplate(f, delimiter)
}

// Validate checks an explicit field list for use as a FieldSpec: it must be
// non-empty and free of blank or duplicate names. Violations map to
// ErrInvalidConfig.
func Validate(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("field list cannot be empty: %w", cwerrors.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("field %d is blank: %w", i+1, cwerrors.ErrInvalidConfig)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("field %q appears more than once: %w", f, cwerrors.ErrInvalidConfig)
		}
		seen[f] = struct{}{}
	}
	return nil
}
