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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cartwavehq/cartwave-export/internal/cartwave"
	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
	"github.com/cartwavehq/cartwave-export/internal/metadata"
)

func testConfig() Config {
	return Config{
		ProjectKey:          "demo-store",
		APIURL:              "https://api.example.test",
		AuthURL:             "https://auth.example.test",
		AccessToken:         "test-token",
		BatchSize:           500,
		Format:              "csv",
		Delimiter:           ",",
		MultiValueDelimiter: ";",
		Language:            "en",
	}
}

func newTestEngine(cfg Config, mock *cartwave.MockClient) *Engine {
	return New(cfg,
		WithClientFactory(func(_, _, _ string) cartwave.Client { return mock }),
		WithTokenSource(cartwave.NewStaticTokenSource("test-token")),
	)
}

func csvLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestEngine_Run_Pagination(t *testing.T) {
	tests := []struct {
		name         string
		codeCount    int
		batchSize    int
		wantAPICalls int
		wantRows     int
		wantLastOff  int64
	}{
		{
			name:         "three pages with short final page",
			codeCount:    1250,
			batchSize:    500,
			wantAPICalls: 3,
			wantRows:     1250,
			wantLastOff:  1000,
		},
		{
			name:         "exact multiple needs a trailing empty page",
			codeCount:    1000,
			batchSize:    500,
			wantAPICalls: 3,
			wantRows:     1000,
			wantLastOff:  1000,
		},
		{
			name:         "single short page",
			codeCount:    42,
			batchSize:    500,
			wantAPICalls: 1,
			wantRows:     42,
			wantLastOff:  0,
		},
		{
			name:         "empty collection",
			codeCount:    0,
			batchSize:    500,
			wantAPICalls: 1,
			wantRows:     0,
			wantLastOff:  0,
		},
		{
			name:         "small batches",
			codeCount:    10,
			batchSize:    3,
			wantAPICalls: 4,
			wantRows:     10,
			wantLastOff:  9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(tt.codeCount)}
			cfg := testConfig()
			cfg.BatchSize = tt.batchSize

			var buf bytes.Buffer
			result, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if mock.CallCount != tt.wantAPICalls {
				t.Errorf("API calls = %d, want %d", mock.CallCount, tt.wantAPICalls)
			}
			if mock.LastOpts.Offset != tt.wantLastOff {
				t.Errorf("last offset = %d, want %d", mock.LastOpts.Offset, tt.wantLastOff)
			}
			if result.Rows != tt.wantRows {
				t.Errorf("result rows = %d, want %d", result.Rows, tt.wantRows)
			}
			if result.APICalls != tt.wantAPICalls {
				t.Errorf("result API calls = %d, want %d", result.APICalls, tt.wantAPICalls)
			}

			lines := csvLines(&buf)
			if len(lines) != tt.wantRows+1 {
				t.Errorf("output has %d lines, want %d rows plus header", len(lines), tt.wantRows)
			}
		})
	}
}

func TestEngine_Run_PreservesRecordOrder(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(1250)}
	cfg := testConfig()

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := csvLines(&buf)
	if !strings.HasPrefix(lines[1], "SAVE1,") {
		t.Errorf("first data line = %q, want the first record", lines[1])
	}
	if !strings.HasPrefix(lines[1250], "SAVE1250,") {
		t.Errorf("last data line = %q, want the last record", lines[1250])
	}
}

func TestEngine_Run_PredicatePassthrough(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(5)}
	cfg := testConfig()
	cfg.Predicate = `cartDiscounts(id="cd-42") and isActive=true`

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if mock.LastOpts.Predicate != cfg.Predicate {
		t.Errorf("predicate sent = %q, want it passed through verbatim", mock.LastOpts.Predicate)
	}
}

func TestEngine_Run_AuthErrorPassesThrough(t *testing.T) {
	mock := &cartwave.MockClient{ShouldFailAuth: true}
	cfg := testConfig()

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrAuth) {
		t.Fatalf("Run() error = %v, want ErrAuth", err)
	}
	if errors.Is(err, cwerrors.ErrFetch) {
		t.Error("auth failures must not be wrapped as fetch errors")
	}
}

func TestEngine_Run_FetchErrorCarriesOffset(t *testing.T) {
	mock := &cartwave.MockClient{
		Codes:        cartwave.GenerateTestCodes(1200),
		FailAtOffset: 1000,
	}
	cfg := testConfig()

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrFetch) {
		t.Fatalf("Run() error = %v, want ErrFetch", err)
	}

	var fetchErr *cwerrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Run() error = %T, want *FetchError", err)
	}
	if fetchErr.Offset != 1000 {
		t.Errorf("FetchError.Offset = %d, want 1000", fetchErr.Offset)
	}

	// Rows from the two successful pages must already be in the sink.
	lines := csvLines(&buf)
	if len(lines) != 1001 {
		t.Errorf("partial output has %d lines, want header plus 1000 rows", len(lines))
	}
}

func TestEngine_Run_NetworkErrorWrapped(t *testing.T) {
	mock := &cartwave.MockClient{ShouldFailNetwork: true}
	cfg := testConfig()

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)

	var fetchErr *cwerrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Run() error = %T (%v), want *FetchError", err, err)
	}
	if fetchErr.Offset != 0 {
		t.Errorf("FetchError.Offset = %d, want 0", fetchErr.Offset)
	}
}

func TestEngine_Run_TemplateFields(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "template.csv")
	content := "code;isActive;unknownField\nSAVE1;true;whatever\n"
	if err := os.WriteFile(template, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(2)}
	cfg := testConfig()
	cfg.TemplatePath = template
	cfg.Delimiter = ";"

	var buf bytes.Buffer
	result, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantFields := []string{"code", "isActive", "unknownField"}
	if len(result.Fields) != len(wantFields) {
		t.Fatalf("resolved fields = %v, want %v", result.Fields, wantFields)
	}

	lines := csvLines(&buf)
	if lines[0] != "code;isActive;unknownField" {
		t.Errorf("header = %q, want the template's first line", lines[0])
	}
	// Unknown fields must render as empty cells, not abort the export.
	if !strings.HasSuffix(lines[1], ";") {
		t.Errorf("row with unknown field = %q, want a trailing empty cell", lines[1])
	}
}

func TestEngine_Run_TemplateMissing(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(2)}
	cfg := testConfig()
	cfg.TemplatePath = filepath.Join(t.TempDir(), "nope.csv")

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrTemplateRead) {
		t.Fatalf("Run() error = %v, want ErrTemplateRead", err)
	}
	if mock.CallCount != 0 {
		t.Errorf("no pages should be fetched after a startup failure, got %d calls", mock.CallCount)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should reach the sink after a startup failure, got %q", buf.String())
	}
}

func TestEngine_Run_TemplateEmpty(t *testing.T) {
	template := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(template, nil, 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	cfg := testConfig()
	cfg.TemplatePath = template

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, &cartwave.MockClient{}).Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrTemplateEmpty) {
		t.Fatalf("Run() error = %v, want ErrTemplateEmpty", err)
	}
}

func TestEngine_Run_StartupFailuresJoin(t *testing.T) {
	// Credentials and template resolution run concurrently; when both
	// fail, the joined error must report both problems.
	cfg := testConfig()
	cfg.AccessToken = ""
	cfg.ClientID = ""
	cfg.ClientSecret = ""
	cfg.TemplatePath = filepath.Join(t.TempDir(), "nope.csv")

	engine := New(cfg, WithClientFactory(func(_, _, _ string) cartwave.Client {
		t.Fatal("client must not be built when startup fails")
		return nil
	}))

	var buf bytes.Buffer
	_, err := engine.Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrAuth) {
		t.Errorf("joined error should carry the auth failure, got: %v", err)
	}
	if !errors.Is(err, cwerrors.ErrTemplateRead) {
		t.Errorf("joined error should carry the template failure, got: %v", err)
	}
}

func TestEngine_Run_JSONFormat(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(3)}
	cfg := testConfig()
	cfg.Format = "json"

	var buf bytes.Buffer
	result, err := newTestEngine(cfg, mock).Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Rows != 3 {
		t.Errorf("result rows = %d, want 3", result.Rows)
	}

	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(rows) != 3 {
		t.Fatalf("array has %d objects, want 3", len(rows))
	}
	if rows[0]["code"] != "SAVE1" {
		t.Errorf("first object code = %q, want SAVE1", rows[0]["code"])
	}
	if rows[0]["name"] != "Save 1" {
		t.Errorf("first object name = %q, want the English translation", rows[0]["name"])
	}
	if rows[0]["id"] != "dc-0001" {
		t.Errorf("JSON defaults should include id, got %q", rows[0]["id"])
	}
}

func TestEngine_Run_JSONEmptyCollection(t *testing.T) {
	cfg := testConfig()
	cfg.Format = "json"

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, &cartwave.MockClient{}).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty JSON export = %q, want []", got)
	}
}

func TestEngine_Run_LanguageSelection(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(1)}
	cfg := testConfig()
	cfg.Language = "de"

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := csvLines(&buf)
	if !strings.Contains(lines[1], "Spare 1") {
		t.Errorf("row = %q, want the German name", lines[1])
	}
	// The description only exists in English, so it must render empty
	// rather than fall back across locales.
	if strings.Contains(lines[1], "Test discount") {
		t.Errorf("row = %q, must not fall back to the English description", lines[1])
	}
}

func TestEngine_Run_MultiValueDelimiter(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(1)}
	cfg := testConfig()
	cfg.MultiValueDelimiter = "|"

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(buf.String(), "summer|newsletter") {
		t.Errorf("output should join groups with |, got:\n%s", buf.String())
	}
}

func TestEngine_Run_ExplicitFields(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(1)}
	cfg := testConfig()
	cfg.Fields = []string{"code", "maxApplications"}

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := csvLines(&buf)
	if lines[0] != "code,maxApplications" {
		t.Errorf("header = %q, want the explicit field list", lines[0])
	}
	if lines[1] != "SAVE1,100" {
		t.Errorf("row = %q, want SAVE1,100", lines[1])
	}
}

func TestEngine_Run_InvalidConfig(t *testing.T) {
	factoryCalled := false
	cfg := testConfig()
	cfg.BatchSize = 0

	engine := New(cfg, WithClientFactory(func(_, _, _ string) cartwave.Client {
		factoryCalled = true
		return cartwave.NewMockClient()
	}))

	var buf bytes.Buffer
	_, err := engine.Run(context.Background(), &buf)
	if !errors.Is(err, cwerrors.ErrInvalidConfig) {
		t.Fatalf("Run() error = %v, want ErrInvalidConfig", err)
	}
	if factoryCalled {
		t.Error("client factory must not run for invalid configuration")
	}
}

func TestEngine_Run_SinkWriteFailure(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(5)}
	cfg := testConfig()

	_, err := newTestEngine(cfg, mock).Run(context.Background(), failingWriter{})
	if !errors.Is(err, cwerrors.ErrSinkWrite) {
		t.Fatalf("Run() error = %v, want ErrSinkWrite", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestEngine_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(5)}
	cfg := testConfig()

	var buf bytes.Buffer
	_, err := newTestEngine(cfg, mock).Run(ctx, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestEngine_Run_MetadataWritten(t *testing.T) {
	dir := t.TempDir()
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(7)}
	cfg := testConfig()
	cfg.MetadataDir = dir
	cfg.Predicate = "isActive=true"

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	md, err := metadata.LoadLatestMetadata(dir, "demo-store")
	if err != nil {
		t.Fatalf("LoadLatestMetadata() error = %v", err)
	}
	if md == nil {
		t.Fatal("expected run metadata to be written")
	}
	if md.Results.Rows != 7 {
		t.Errorf("metadata rows = %d, want 7", md.Results.Rows)
	}
	if md.Parameters.Predicate != "isActive=true" {
		t.Errorf("metadata predicate = %q, want the run's predicate", md.Parameters.Predicate)
	}
	if md.ExportID == "" {
		t.Error("metadata should carry an export ID")
	}
}

func TestEngine_Run_MetadataDisabled(t *testing.T) {
	mock := &cartwave.MockClient{Codes: cartwave.GenerateTestCodes(2)}
	cfg := testConfig()
	cfg.MetadataDir = ""

	var buf bytes.Buffer
	if _, err := newTestEngine(cfg, mock).Run(context.Background(), &buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
