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

package output

// RowWriter defines the interface for serializing flattened rows.
// Implementations exist for CSV and JSON; the export engine drives them
// identically so new formats never touch the pagination logic.
type RowWriter interface {
	// Begin fixes the field order and writes any document preamble
	// (the CSV header row, the opening JSON bracket). It must be called
	// exactly once, before the first Write.
	Begin(fields []string) error

	// Write serializes one row to the sink. Missing cells render as
	// empty values so every row spans the full field set.
	Write(row map[string]string) error

	// Finish writes any document trailer and flushes buffered output.
	// It is safe to call more than once; later calls are no-ops, which
	// lets callers defer it and still finish early on the happy path.
	Finish() error
}
