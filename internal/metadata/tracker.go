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

// Package metadata provides functionality for tracking and persisting
// metadata about export runs. It records the parameters of each run, the
// number of rows and pages processed, API usage, and timing.
//
// Metadata files are JSON, one per run, written atomically with an embedded
// SHA-256 checksum so external tooling can trust what it reads. They let
// operators answer "what did the last export of this project look like"
// without re-running anything.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Tracker collects statistics during an export run. Create one at the start
// of the run and feed it from the pipeline; it is driven sequentially, like
// the pipeline itself.
type Tracker struct {
	startTime    time.Time
	apiCallCount int
	rows         int
	pages        int
}

// New creates a tracker anchored at the current time.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// IncrementAPICall records one platform API request. Call it for every
// request issued, including the page that turns out to be empty.
func (t *Tracker) IncrementAPICall() {
	t.apiCallCount++
}

// AddPage records a fetched page and the number of rows it contributed.
func (t *Tracker) AddPage(rows int) {
	t.pages++
	t.rows += rows
}

// Rows returns the number of rows recorded so far.
func (t *Tracker) Rows() int {
	return t.rows
}

// GenerateMetadata assembles the metadata record for a completed run. The
// export ID is a fresh UUID; the checksum is filled in by SaveMetadata.
func (t *Tracker) GenerateMetadata(toolVersion string, params ExportParams) *ExportMetadata {
	completedAt := time.Now()

	return &ExportMetadata{
		ToolVersion: toolVersion,
		ExportID:    uuid.NewString(),
		Parameters:  params,
		Results: ExportResults{
			Rows:         t.rows,
			Pages:        t.pages,
			APICallCount: t.apiCallCount,
			Duration:     completedAt.Sub(t.startTime).String(),
			StartedAt:    t.startTime,
			CompletedAt:  completedAt,
		},
	}
}

// SaveMetadata persists a metadata record to metadataDir as
// export-metadata-{timestamp}.json. The write goes through a temp file,
// fsync, and rename so a crash never leaves a half-written record, and the
// checksum is computed over the final content.
func SaveMetadata(md *ExportMetadata, metadataDir string) error {
	if err := os.MkdirAll(metadataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	checksum, err := calculateChecksum(md)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	md.Checksum = checksum

	filename := fmt.Sprintf("export-metadata-%d.json", md.Results.StartedAt.Unix())
	finalPath := filepath.Join(metadataDir, filename)
	tmpPath := finalPath + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(md); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync metadata file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadLatestMetadata finds and loads the most recent metadata record for
// the given project key. It verifies the embedded checksum and rejects
// corrupted files. Returns nil without error when no record exists or the
// latest record belongs to a different project.
func LoadLatestMetadata(metadataDir, projectKey string) (*ExportMetadata, error) {
	pattern := filepath.Join(metadataDir, "export-metadata-*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	var latestFile string
	var latestTime time.Time
	for _, file := range files {
		info, statErr := os.Stat(file)
		if statErr != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = file
		}
	}
	if latestFile == "" {
		return nil, nil
	}

	file, err := os.Open(latestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var md ExportMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("metadata file is corrupted (invalid JSON): %w", err)
	}

	savedChecksum := md.Checksum
	if savedChecksum != "" {
		md.Checksum = ""
		calculated, err := calculateChecksum(&md)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
		}
		if savedChecksum != calculated {
			return nil, fmt.Errorf("metadata file is corrupted (checksum mismatch)")
		}
		md.Checksum = savedChecksum
	}

	if md.Parameters.ProjectKey != projectKey {
		return nil, nil
	}

	return &md, nil
}

// WriteMetadataToWriter serializes a metadata record as indented JSON to w.
// Useful for printing the record to stderr or a debug stream.
func WriteMetadataToWriter(md *ExportMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(md)
}

// calculateChecksum computes the SHA-256 hash of the record with the
// checksum field cleared, so the stored hash covers everything else.
func calculateChecksum(md *ExportMetadata) (string, error) {
	mdCopy := *md
	mdCopy.Checksum = ""

	data, err := json.Marshal(mdCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
