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

package testutil

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	binaryOnce sync.Once
	binaryPath string
	buildErr   error
)

// BuildBinary builds the cartwave-export binary once per test run. The binary
// lands in a temp directory that outlives individual tests, so every suite in
// the process shares one build. Callers that chdir must build first: the
// project root is located by walking up from the current directory.
func BuildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "cartwave-export-test")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(tmpDir, "cartwave-export")

		projectRoot, err := findProjectRoot()
		if err != nil {
			buildErr = err
			return
		}

		cmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join(projectRoot, "cmd", "export"))
		if output, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build: %v\n%s", err, output)
		}
	})

	if buildErr != nil {
		t.Fatalf("Failed to build binary: %v", buildErr)
	}

	return binaryPath
}

// CLIResult contains the result of running a CLI command
type CLIResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// RunCLI executes the cartwave-export binary with the given arguments. Keys
// in env replace inherited variables of the same name; an empty value removes
// the variable entirely, which lets precedence tests strip ambient CARTWAVE_*
// settings from the developer's shell.
func RunCLI(t *testing.T, args []string, env map[string]string) CLIResult {
	t.Helper()

	binary := BuildBinary(t)

	cmd := exec.Command(binary, args...)
	cmd.Env = mergeEnv(os.Environ(), env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		exitCode = -1
	}

	return CLIResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// mergeEnv overlays the given variables on an inherited environment. Inherited
// entries whose key appears in overlay are dropped first so a test's value is
// the only one the child process sees.
func mergeEnv(inherited []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return inherited
	}

	merged := make([]string, 0, len(inherited)+len(overlay))
	for _, kv := range inherited {
		key, _, _ := strings.Cut(kv, "=")
		if _, shadowed := overlay[key]; shadowed {
			continue
		}
		merged = append(merged, kv)
	}
	for k, v := range overlay {
		if v == "" {
			continue
		}
		merged = append(merged, k+"="+v)
	}
	return merged
}

// AssertCLISuccess checks that the CLI command succeeded
func AssertCLISuccess(t *testing.T, result CLIResult) {
	t.Helper()

	if result.Err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", result.Err, result.Stderr)
	}
}

// AssertCLIError checks that the CLI command failed with expected error
func AssertCLIError(t *testing.T, result CLIResult, expectedError string) {
	t.Helper()

	if result.Err == nil {
		t.Fatal("Expected command to fail, but it succeeded")
	}

	if expectedError != "" && !strings.Contains(result.Stderr, expectedError) {
		t.Errorf("Expected error containing %q, got: %s", expectedError, result.Stderr)
	}
}

// AssertExitCode checks the command exit code
func AssertExitCode(t *testing.T, result CLIResult, expected int) {
	t.Helper()

	if result.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStderr: %s", expected, result.ExitCode, result.Stderr)
	}
}

// RunWithMockPlatform runs the CLI against a mock platform and returns the
// result. A static test token is supplied through the environment so exports
// authenticate without a client-credentials exchange. The metadata directory
// is redirected to a throwaway temp dir; tests that inspect the sidecar must
// call RunCLI with their own CARTWAVE_METADATA_DIR instead.
func RunWithMockPlatform(t *testing.T, platform *MockPlatform, projectKey string, args ...string) CLIResult {
	t.Helper()

	fullArgs := []string{"discount-codes", "--project-key", projectKey}
	fullArgs = append(fullArgs, args...)

	env := map[string]string{
		"CARTWAVE_ACCESS_TOKEN": TestToken,
		"CARTWAVE_API_URL":      platform.URL,
		"CARTWAVE_AUTH_URL":     platform.URL,
		"CARTWAVE_METADATA_DIR": t.TempDir(),
	}

	return RunCLI(t, fullArgs, env)
}

// findProjectRoot finds the project root by looking for go.mod
func findProjectRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := start; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", start)
		}
		dir = parent
	}
}
