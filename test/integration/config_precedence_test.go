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

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cartwavehq/cartwave-export/test/testutil"
)

// TestBatchSizePrecedence walks the full precedence chain for one setting:
// flag > environment > project override > config file defaults > built-in
// default. The effective value is observed as the limit on the wire.
func TestBatchSizePrecedence(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	withProject := `defaults:
  batch_size: 60
projects:
  precedence-shop:
    batch_size: 15
`

	tests := []struct {
		name          string
		configContent string
		envBatch      string
		flagBatch     string
		wantLimit     int
	}{
		{
			name:      "built-in default",
			wantLimit: 500,
		},
		{
			name:          "config file beats the built-in default",
			configContent: "defaults:\n  batch_size: 25\n",
			wantLimit:     25,
		},
		{
			name:          "project override beats the defaults section",
			configContent: withProject,
			wantLimit:     15,
		},
		{
			name:          "environment beats the config file",
			configContent: "defaults:\n  batch_size: 25\n",
			envBatch:      "30",
			wantLimit:     30,
		},
		{
			name:          "environment beats the project override",
			configContent: withProject,
			envBatch:      "30",
			wantLimit:     30,
		},
		{
			name:          "flag beats environment and config",
			configContent: withProject,
			envBatch:      "30",
			flagBatch:     "40",
			wantLimit:     40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(20))
			outputFile := filepath.Join(t.TempDir(), "codes.json")

			args := []string{
				"discount-codes",
				"--project-key", "precedence-shop",
				"--output", outputFile,
			}
			if tt.configContent != "" {
				cfgPath := testutil.WriteConfigFile(t, t.TempDir(), tt.configContent)
				args = append(args, "--config", cfgPath)
			}
			if tt.flagBatch != "" {
				args = append(args, "--batch-size", tt.flagBatch)
			}

			// HOME is redirected so config discovery in the real home
			// directory cannot leak into the run.
			env := map[string]string{
				"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
				"CARTWAVE_API_URL":      platform.URL,
				"CARTWAVE_AUTH_URL":     platform.URL,
				"CARTWAVE_METADATA_DIR": t.TempDir(),
				"HOME":                  t.TempDir(),
			}
			if tt.envBatch != "" {
				env["CARTWAVE_BATCH_SIZE"] = tt.envBatch
			}

			result := testutil.RunCLI(t, args, env)

			testutil.AssertCLISuccess(t, result)
			testutil.AssertEqual(t, platform.LastLimit(), tt.wantLimit)
		})
	}
}

// TestTokenPrecedence verifies that --access-token beats every environment
// source, including a token_env renamed by the config file.
func TestTokenPrecedence(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	t.Run("flag token beats a stale environment token", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(8))
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "token-shop",
			"--access-token", testutil.TestToken,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": "stale-env-token",
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": t.TempDir(),
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertJSONArrayOutput(t, outputFile, 8)
	})

	t.Run("flag token wins even when the environment token is valid", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(8))

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "token-shop",
			"--access-token", "revoked-token",
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": t.TempDir(),
		})

		testutil.AssertCLIError(t, result, "platform authorization failed")
		testutil.AssertExitCode(t, result, 2)
	})

	t.Run("flag token beats a renamed token variable", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(8))
		cfgPath := testutil.WriteConfigFile(t, t.TempDir(), `api:
  token_env: CARTWAVE_CUSTOM_TOKEN
`)
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "token-shop",
			"--config", cfgPath,
			"--access-token", testutil.TestToken,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": "",
			"CARTWAVE_CUSTOM_TOKEN": "stale-custom-token",
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": t.TempDir(),
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertJSONArrayOutput(t, outputFile, 8)
	})
}

// TestEndpointPrecedence verifies that the platform endpoint follows the
// same chain, by watching which of two mock platforms receives the request.
func TestEndpointPrecedence(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	t.Run("api-url flag beats the environment", func(t *testing.T) {
		envPlatform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		flagPlatform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "endpoint-shop",
			"--api-url", flagPlatform.URL,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      envPlatform.URL,
			"CARTWAVE_AUTH_URL":     envPlatform.URL,
			"CARTWAVE_METADATA_DIR": t.TempDir(),
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertEqual(t, flagPlatform.PageRequests(), 1)
		testutil.AssertEqual(t, envPlatform.PageRequests(), 0)
	})

	t.Run("environment beats the config file", func(t *testing.T) {
		filePlatform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		envPlatform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		cfgPath := testutil.WriteConfigFile(t, t.TempDir(), `api:
  base_url: `+filePlatform.URL+`
  auth_url: `+filePlatform.URL+`
`)
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "endpoint-shop",
			"--config", cfgPath,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      envPlatform.URL,
			"CARTWAVE_AUTH_URL":     envPlatform.URL,
			"CARTWAVE_METADATA_DIR": t.TempDir(),
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertEqual(t, envPlatform.PageRequests(), 1)
		testutil.AssertEqual(t, filePlatform.PageRequests(), 0)
	})
}

// TestMetadataDirPrecedence verifies where the metadata sidecar lands:
// environment over config file over the default under the home directory.
func TestMetadataDirPrecedence(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	t.Run("default lands under the home directory", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		home := t.TempDir()
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "meta-shop",
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": "",
			"HOME":                  home,
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertMetadataFile(t, filepath.Join(home, ".cartwave", "exports"), "meta-shop")
	})

	t.Run("config file beats the default", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		metaDir := t.TempDir()
		cfgPath := testutil.WriteConfigFile(t, t.TempDir(), "defaults:\n  metadata_dir: "+metaDir+"\n")
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "meta-shop",
			"--config", cfgPath,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": "",
			"HOME":                  t.TempDir(),
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertMetadataFile(t, metaDir, "meta-shop")
	})

	t.Run("environment beats the config file", func(t *testing.T) {
		platform := testutil.NewPlatformServer(t, testutil.GenerateCodes(5))
		fileDir := t.TempDir()
		envDir := t.TempDir()
		cfgPath := testutil.WriteConfigFile(t, t.TempDir(), "defaults:\n  metadata_dir: "+fileDir+"\n")
		outputFile := filepath.Join(t.TempDir(), "codes.json")

		result := testutil.RunCLI(t, []string{
			"discount-codes",
			"--project-key", "meta-shop",
			"--config", cfgPath,
			"--output", outputFile,
		}, map[string]string{
			"CARTWAVE_ACCESS_TOKEN": testutil.TestToken,
			"CARTWAVE_API_URL":      platform.URL,
			"CARTWAVE_AUTH_URL":     platform.URL,
			"CARTWAVE_METADATA_DIR": envDir,
		})

		testutil.AssertCLISuccess(t, result)
		testutil.AssertMetadataFile(t, envDir, "meta-shop")

		entries, err := os.ReadDir(fileDir)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", fileDir, err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no metadata in the config file dir, found %d entries", len(entries))
		}
	})
}
