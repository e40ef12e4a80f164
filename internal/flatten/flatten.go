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

// Package flatten projects platform records onto flat string rows.
//
// Every output cell is text. Localized strings resolve against a single
// export language with no cross-locale fallback, sequences join into one
// cell with a configurable delimiter, and absent or null attributes render
// as the empty string so every row carries the full field set.
package flatten

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/cartwavehq/cartwave-export/internal/cartwave"
	"github.com/cartwavehq/cartwave-export/internal/fieldspec"
)

// Row is one flattened record: a string value for every requested field,
// empty when the record has nothing to offer.
type Row map[string]string

// Kind tags the shape of a resolved attribute value.
type Kind int

const (
	// KindMissing marks attributes the record does not carry, including
	// explicit JSON nulls.
	KindMissing Kind = iota
	// KindScalar marks strings, numbers, and booleans.
	KindScalar
	// KindLocalized marks language-keyed string objects.
	KindLocalized
	// KindSequence marks arrays.
	KindSequence
	// KindObject marks remaining structured values.
	KindObject
)

// Flattener renders records into rows using a fixed export language and
// multi-value delimiter. It is safe for reuse across records.
type Flattener struct {
	language  string
	tag       language.Tag
	tagValid  bool
	delimiter string
}

// New returns a Flattener for the given BCP-47 language and multi-value
// delimiter. An unparseable language degrades to exact string matching.
func New(lang, multiValueDelimiter string) *Flattener {
	f := &Flattener{
		language:  lang,
		delimiter: multiValueDelimiter,
	}
	if tag, err := language.Parse(lang); err == nil {
		f.tag = tag
		f.tagValid = true
	}
	return f
}

// Flatten projects rec onto the requested fields. Unknown fields yield the
// empty string rather than an error, so ad-hoc templates never abort an
// export.
func (f *Flattener) Flatten(rec cartwave.Record, fields fieldspec.FieldSpec) Row {
	row := make(Row, len(fields))
	for _, field := range fields {
		v, ok := Resolve(rec, field)
		if !ok {
			row[field] = ""
			continue
		}
		row[field] = f.render(v)
	}
	return row
}

// Resolve looks field up in rec. An exact top-level key wins; otherwise the
// name is treated as a dot path into nested objects, which is how custom
// attributes like "custom.fields.campaign" are addressed.
func Resolve(rec cartwave.Record, field string) (any, bool) {
	if v, ok := rec[field]; ok {
		return v, true
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}

	var cur any = map[string]any(rec)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Classify reports the shape of a resolved value.
func Classify(v any) Kind {
	switch val := v.(type) {
	case nil:
		return KindMissing
	case string, bool, json.Number, float64, int, int64:
		return KindScalar
	case []any:
		return KindSequence
	case map[string]any:
		if isLocalized(val) {
			return KindLocalized
		}
		return KindObject
	default:
		return KindObject
	}
}

// isLocalized reports whether m looks like a language-keyed string object.
// Every key must look like a locale tag and every value must be a string or
// null; reference objects such as {"typeId": ..., "id": ...} fail the key
// check and render as JSON instead.
func isLocalized(m map[string]any) bool {
	for k, v := range m {
		if !looksLikeLocaleKey(k) {
			return false
		}
		switch v.(type) {
		case string, nil:
		default:
			return false
		}
	}
	return true
}

// looksLikeLocaleKey accepts keys shaped like BCP-47 tags: a 2-3 letter
// primary subtag, optionally followed by dash-separated subtags.
func looksLikeLocaleKey(key string) bool {
	primary, _, _ := strings.Cut(key, "-")
	if len(primary) < 2 || len(primary) > 3 {
		return false
	}
	for _, r := range primary {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func (f *Flattener) render(v any) string {
	switch Classify(v) {
	case KindMissing:
		return ""
	case KindScalar:
		return scalarText(v)
	case KindLocalized:
		return f.localizedText(v.(map[string]any))
	case KindSequence:
		return f.sequenceText(v.([]any))
	default:
		return compactJSON(v)
	}
}

// scalarText renders a scalar in its canonical wire form. json.Number keeps
// the exact digits the platform sent.
func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return compactJSON(v)
	}
}

// localizedText picks the value for the export language. Matching is by
// canonical BCP-47 tag, so "en-US" in a template matches an "en-us" key but
// never falls back to plain "en". No match yields the empty string.
func (f *Flattener) localizedText(m map[string]any) string {
	if s, ok := m[f.language].(string); ok {
		return s
	}
	if !f.tagValid {
		return ""
	}
	for key, v := range m {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		if tag == f.tag {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// sequenceText joins array elements into one cell. Reference objects render
// as their id; other objects render as compact JSON.
func (f *Flattener) sequenceText(items []any) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch Classify(item) {
		case KindMissing:
			parts = append(parts, "")
		case KindScalar:
			parts = append(parts, scalarText(item))
		case KindLocalized, KindObject:
			m := item.(map[string]any)
			if id, ok := m["id"].(string); ok {
				parts = append(parts, id)
				continue
			}
			parts = append(parts, compactJSON(item))
		default:
			parts = append(parts, compactJSON(item))
		}
	}
	return strings.Join(parts, f.delimiter)
}

// compactJSON renders structured values that have no flat representation.
// Keys are sorted by encoding/json, so output is deterministic.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Languages lists the locales present in a localized value, sorted. Used by
// diagnostics when an export language matches nothing.
func Languages(v any) []string {
	m, ok := v.(map[string]any)
	if !ok || !isLocalized(m) {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
