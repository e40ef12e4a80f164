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

// Package main implements the cartwave-export command-line interface.
// This tool exports discount codes from CartWave projects and writes
// them as CSV or JSON for spreadsheets and downstream pipelines.
//
// The CLI supports:
//   - Streaming exports of any size in constant memory
//   - CSV and JSON output with configurable delimiters
//   - Field selection through a template file's header row
//   - Server-side filtering with platform predicates
//   - Token or client-credentials authentication via flags, environment
//     variables, or a config file
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	cartwave-export discount-codes --project-key <key> [flags]
//
// Example:
//
//	export CARTWAVE_ACCESS_TOKEN=your_token
//	cartwave-export discount-codes --project-key my-shop --format csv --output codes.csv
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication/authorization error
//   - 3: Platform/network error
package main
