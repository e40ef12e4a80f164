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

// Package version exposes the build version of cartwave-export.
// The value is overridden at release time via:
//
//	go build -ldflags "-X github.com/cartwavehq/cartwave-export/pkg/version.Version=v1.2.3"
package version

// Version is the semantic version of the binary. It is stamped into the
// User-Agent header of every API request and recorded in export metadata.
var Version = "dev"
