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

package testutil

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertCSVOutput validates that a file is RFC 4180 CSV with the expected
// number of data rows after a single header row.
func AssertCSVOutput(t *testing.T, filePath string, delimiter rune, expectedRows int) {
	t.Helper()

	file, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delimiter

	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}

	if len(records) == 0 {
		t.Fatal("Output has no header row")
	}

	header := records[0]
	for _, field := range header {
		if field == "" {
			t.Error("Header contains an empty field name")
		}
	}

	rows := records[1:]
	if len(rows) != expectedRows {
		t.Errorf("Expected %d data rows, got %d", expectedRows, len(rows))
	}

	// Every row must be as wide as the header; encoding/csv enforces this,
	// but the explicit check gives a clearer failure.
	for i, row := range rows {
		if len(row) != len(header) {
			t.Errorf("Row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
	}
}

// AssertJSONArrayOutput validates that a file holds a JSON array of flat
// string-valued objects with the expected number of entries.
func AssertJSONArrayOutput(t *testing.T, filePath string, expectedRows int) []map[string]string {
	t.Helper()

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}

	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("Output is not a valid JSON array of objects: %v", err)
	}

	if len(rows) != expectedRows {
		t.Errorf("Expected %d rows, got %d", expectedRows, len(rows))
	}

	return rows
}

// AssertHeaderOnce verifies the header line appears exactly once in a CSV
// export, no matter how many pages fed it.
func AssertHeaderOnce(t *testing.T, filePath, header string) {
	t.Helper()

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}

	occurrences := strings.Count(string(data), header)
	if occurrences != 1 {
		t.Errorf("Expected header exactly once, found %d occurrences", occurrences)
	}

	if !strings.HasPrefix(string(data), header) {
		t.Error("Expected output to start with the header row")
	}
}

// AssertMetadataFile validates metadata sidecar contents for a project
func AssertMetadataFile(t *testing.T, dir, projectKey string) {
	t.Helper()

	pattern := filepath.Join(dir, "export-metadata-*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("Failed to glob metadata files: %v", err)
	}

	if len(matches) == 0 {
		t.Fatal("No metadata file found")
	}

	// Read and validate metadata
	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		t.Fatalf("Failed to read metadata file: %v", err)
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("Invalid metadata JSON: %v", err)
	}

	// Check required fields
	requiredFields := []string{"tool_version", "export_id", "parameters", "results", "checksum"}
	for _, field := range requiredFields {
		if _, ok := meta[field]; !ok {
			t.Errorf("Missing required metadata field: %s", field)
		}
	}

	params, ok := meta["parameters"].(map[string]any)
	if !ok {
		t.Fatal("Metadata parameters is not an object")
	}
	if params["project_key"] != projectKey {
		t.Errorf("Metadata project_key = %v, want %s", params["project_key"], projectKey)
	}
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertNotContainsString checks if a string does not contain a substring
func AssertNotContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected string to NOT contain %q, got: %s", needle, haystack)
	}
}

// AssertErrorContains checks if an error contains expected text
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("Expected error to contain %q, got: %v", expected, err)
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertEqual compares two values and fails if they're not equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Got %v, want %v", got, want)
	}
}

// AssertDirExists checks that a directory exists
func AssertDirExists(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Expected directory to exist: %s", path)
		}
		t.Fatalf("Failed to stat directory: %v", err)
	}

	if !info.IsDir() {
		t.Fatalf("Expected %s to be a directory", path)
	}
}
