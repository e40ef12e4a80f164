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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartwavehq/cartwave-export/internal/config"
	cwerrors "github.com/cartwavehq/cartwave-export/internal/errors"
	"github.com/cartwavehq/cartwave-export/internal/export"
	"github.com/cartwavehq/cartwave-export/internal/logging"
	"github.com/cartwavehq/cartwave-export/internal/output"
)

// exportFlags holds the command-line flags for the discount-codes command.
// A zero value means the flag was not set and the config file default applies.
type exportFlags struct {
	projectKey  string
	configFile  string
	accessToken string
	apiURL      string
	authURL     string
	batchSize   int
	format      string
	delimiter   string
	mvDelimiter string
	language    string
	where       string
	template    string
	outputFile  string
	logLevel    string
	noMetadata  bool
}

// discountCodesCmd represents the discount-codes command
func newDiscountCodesCommand() *cobra.Command {
	f := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "discount-codes",
		Short: "Export discount codes from a CartWave project",
		Long: `Export discount codes from a CartWave project to CSV or JSON.

Codes are fetched in pages of --batch-size and streamed to the output as
they arrive, so exports of any size run in constant memory. Rows appear in
the order the platform returns them.

Authentication requires platform credentials:
  - Use --access-token to provide a token directly
  - Or set CARTWAVE_ACCESS_TOKEN
  - Or set CARTWAVE_CLIENT_ID and CARTWAVE_CLIENT_SECRET so the tool can
    request a token from the auth endpoint itself

For example:
  cartwave-export discount-codes --project-key my-shop --output codes.csv --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, f)
		},
	}

	// Define flags
	cmd.Flags().StringVar(&f.projectKey, "project-key", "", "CartWave project key (required)")
	cmd.Flags().StringVar(&f.configFile, "config", "", "Path to config file (default: ~/.cartwave/config.yaml)")
	cmd.Flags().StringVar(&f.accessToken, "access-token", "", "Platform access token (overrides CARTWAVE_ACCESS_TOKEN env var)")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Platform API base URL (overrides config)")
	cmd.Flags().StringVar(&f.authURL, "auth-url", "", "OAuth token endpoint (overrides config)")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Codes fetched per API call, 1-500 (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: csv or json (default from config)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV field delimiter, also used to split the template header (default from config)")
	cmd.Flags().StringVar(&f.mvDelimiter, "multi-value-delimiter", "", "Separator joining multi-value cells (default from config)")
	cmd.Flags().StringVar(&f.language, "language", "", "BCP 47 language tag for localized fields (default from config)")
	cmd.Flags().StringVar(&f.where, "where", "", "Platform predicate to filter codes server-side")
	cmd.Flags().StringVar(&f.template, "template", "", "Template file whose first line selects the exported fields")
	cmd.Flags().StringVar(&f.outputFile, "output", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log verbosity: debug, info, warn, or error")
	cmd.Flags().BoolVar(&f.noMetadata, "no-metadata", false, "Skip writing the export metadata file")

	_ = cmd.MarkFlagRequired("project-key")

	return cmd
}

// runExport executes the discount-codes command
func runExport(cmd *cobra.Command, f *exportFlags) error {
	cfg, err := config.LoadConfigForProject(f.configFile, f.projectKey)
	if err != nil {
		return err
	}

	// When the export itself goes to stdout, logs must stay on stderr in a
	// machine-friendly shape so they never mix into the data stream.
	logging.Init(f.outputFile == "" || f.outputFile == "-", logging.ParseLevel(f.logLevel))

	ecfg := buildExportConfig(cmd.Flags().Changed, f, cfg)
	if err := ecfg.Validate(); err != nil {
		return err
	}

	sink, err := output.OpenSink(f.outputFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	result, err := export.New(ecfg).Run(cmd.Context(), sink)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %d discount codes in %s (%d pages)\n",
		result.Rows, result.Duration.Round(time.Millisecond), result.Pages)
	return nil
}

// buildExportConfig merges the config file with command-line flags. Flags win
// over config values, but only when the user actually set them; the changed
// func reports whether a flag was given on the command line.
func buildExportConfig(changed func(name string) bool, f *exportFlags, cfg *config.Config) export.Config {
	ecfg := export.Config{
		ProjectKey:          f.projectKey,
		APIURL:              cfg.API.BaseURL,
		AuthURL:             cfg.API.AuthURL,
		AccessToken:         getToken(f.accessToken, cfg.API.TokenEnv),
		ClientID:            os.Getenv(cfg.API.ClientIDEnv),
		ClientSecret:        os.Getenv(cfg.API.ClientSecretEnv),
		BatchSize:           cfg.Defaults.BatchSize,
		Format:              cfg.Defaults.ExportFormat,
		Delimiter:           cfg.Defaults.Delimiter,
		MultiValueDelimiter: cfg.Defaults.MultiValueDelimiter,
		Language:            cfg.Defaults.Language,
		Predicate:           f.where,
		TemplatePath:        f.template,
		Output:              f.outputFile,
		MetadataDir:         cfg.Defaults.MetadataDir,
	}

	if changed("api-url") {
		ecfg.APIURL = f.apiURL
	}
	if changed("auth-url") {
		ecfg.AuthURL = f.authURL
	}
	if changed("batch-size") {
		ecfg.BatchSize = f.batchSize
	}
	if changed("format") {
		ecfg.Format = f.format
	}
	if changed("delimiter") {
		ecfg.Delimiter = f.delimiter
	}
	if changed("multi-value-delimiter") {
		ecfg.MultiValueDelimiter = f.mvDelimiter
	}
	if changed("language") {
		ecfg.Language = f.language
	}
	if f.noMetadata {
		ecfg.MetadataDir = ""
	}

	return ecfg
}

// getToken returns the platform access token from the flag or the environment
// variable named by the config file.
func getToken(flagToken, envVar string) string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv(envVar)
}

// mapErrorToExitCode converts errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, cwerrors.ErrAuth) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, cwerrors.ErrFetch) {
		return 3 // Platform/network errors
	}

	return 1 // General error
}
