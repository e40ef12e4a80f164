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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrAuth indicates credential resolution or API authorization failed.
	// Maps to exit code 2.
	ErrAuth = errors.New("authentication failed")

	// ErrTemplateRead indicates the template file could not be opened or read.
	// Maps to exit code 1.
	ErrTemplateRead = errors.New("template not readable")

	// ErrTemplateEmpty indicates the template file contains no header line.
	// Maps to exit code 1.
	ErrTemplateEmpty = errors.New("template is empty")

	// ErrFetch indicates a discount-code page request failed.
	// Maps to exit code 3.
	ErrFetch = errors.New("fetch failed")

	// ErrSinkWrite indicates the output sink rejected a write.
	// Maps to exit code 1.
	ErrSinkWrite = errors.New("sink write failed")

	// ErrInvalidConfig indicates the effective configuration failed validation.
	// Maps to exit code 1.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FetchError reports a failed page request together with the offset at which
// the export stopped. It matches ErrFetch via errors.Is.
type FetchError struct {
	// Offset is the record offset of the page that failed.
	Offset int64
	// Err is the underlying transport or API error.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching discount codes at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFetch, so callers can classify the failure
// without knowing the concrete type.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// SinkWriteError reports a failed write to the output sink. It matches
// ErrSinkWrite via errors.Is.
type SinkWriteError struct {
	// Err is the underlying I/O or encoding error.
	Err error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("writing to sink: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *SinkWriteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSinkWrite.
func (e *SinkWriteError) Is(target error) bool { return target == ErrSinkWrite }
