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

// Package output serializes flattened rows to CSV or JSON sinks.
//
// Both writers stream: a row handed to Write is on its way to the sink
// before the next page is fetched, so an export that dies mid-run leaves
// every finished row behind. CSV output follows RFC 4180 with a
// configurable column delimiter and emits the header exactly once, even
// for an empty export. JSON output is a single top-level array written
// incrementally, never an in-memory slice of all records.
//
// Example usage:
//
//	sink, err := output.OpenSink("codes.csv")
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	w := output.NewCSVWriter(sink, ',')
//	if err := w.Begin(fields); err != nil {
//	    return err
//	}
//	for _, row := range rows {
//	    if err := w.Write(row); err != nil {
//	        return err
//	    }
//	}
//	return w.Finish()
package output
