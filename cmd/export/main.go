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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartwavehq/cartwave-export/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cartwave-export",
		Short: "Export commerce data from CartWave projects",
		Long: `CartWave Export streams commerce data out of a CartWave project into
CSV or JSON files. It pages through the platform API with constant memory
usage, so collections of any size export safely from a laptop or a cron job.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.AddCommand(newDiscountCodesCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}
