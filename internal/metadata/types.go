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

// Package metadata types define the structures persisted after each export
// run. They capture what was exported, with which parameters, and how the
// run performed, giving operators an audit trail across runs.
package metadata

import (
	"time"
)

// ExportMetadata is the complete record of a single export run. One file is
// written per run, so a metadata directory doubles as export history. The
// checksum covers every other field and detects truncated or edited files.
type ExportMetadata struct {
	ToolVersion string        `json:"tool_version"`
	ExportID    string        `json:"export_id"`
	Parameters  ExportParams  `json:"parameters"`
	Results     ExportResults `json:"results"`
	Checksum    string        `json:"checksum,omitempty"`
}

// ExportParams captures the input parameters of an export run. Recording
// them makes any run reproducible: the same parameters against the same
// project yield the same rows, modulo writes happening upstream.
type ExportParams struct {
	ProjectKey   string   `json:"project_key"`
	Format       string   `json:"format"`
	BatchSize    int      `json:"batch_size"`
	Language     string   `json:"language"`
	Predicate    string   `json:"predicate,omitempty"`
	TemplatePath string   `json:"template_path,omitempty"`
	Fields       []string `json:"fields"`
	Output       string   `json:"output,omitempty"`
}

// ExportResults contains the statistics of a completed export: row and page
// counts, API usage, and timing.
type ExportResults struct {
	Rows         int       `json:"rows_exported"`
	Pages        int       `json:"pages_fetched"`
	APICallCount int       `json:"api_calls_made"`
	Duration     string    `json:"export_duration"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}
