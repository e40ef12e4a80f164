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

// Package config provides configuration management for cartwave-export with
// support for multiple configuration sources and a well-defined precedence
// order. It enables team deployments to customize behavior through
// configuration files while maintaining flexibility with environment variables
// and command-line overrides.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Project-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. It's designed to work
// seamlessly with self-hosted platform deployments and supports per-project
// overrides for fine-grained control.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .cartwave-export.yaml (current directory)
//   - .cartwave-export.yml (current directory)
//   - ~/.cartwave/config.yaml
//   - ~/.cartwave/config.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is performed
// on directory paths.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	return loadConfig(configPath, "")
}

// LoadConfigForProject loads configuration and folds project-specific
// overrides into the defaults. This allows different settings for different
// projects, useful when some projects require special handling (e.g., lower
// batch sizes for projects with large discount-code payloads). Environment
// variables still win over project settings.
func LoadConfigForProject(configPath, projectKey string) (*Config, error) {
	return loadConfig(configPath, projectKey)
}

// loadConfig layers the configuration sources: built-in defaults, then the
// config file, then project overrides, then environment variables. Later
// layers win.
func loadConfig(configPath, projectKey string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load config file if path is provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".cartwave-export.yaml",
			".cartwave-export.yml",
			filepath.Join(os.Getenv("HOME"), ".cartwave", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".cartwave", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Fold project-specific overrides into the defaults
	if projectConfig, ok := cfg.Projects[projectKey]; ok && projectKey != "" {
		if projectConfig.BatchSize > 0 {
			cfg.Defaults.BatchSize = projectConfig.BatchSize
		}
		if projectConfig.Language != "" {
			cfg.Defaults.Language = projectConfig.Language
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Expand paths
	cfg.Defaults.MetadataDir = expandPath(cfg.Defaults.MetadataDir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Platform endpoints
	if endpoint := os.Getenv("CARTWAVE_API_URL"); endpoint != "" {
		cfg.API.BaseURL = endpoint
	}
	if endpoint := os.Getenv("CARTWAVE_AUTH_URL"); endpoint != "" {
		cfg.API.AuthURL = endpoint
	}

	// Defaults
	if batchSize := os.Getenv("CARTWAVE_BATCH_SIZE"); batchSize != "" {
		if size, err := parsePositiveInt(batchSize); err == nil {
			cfg.Defaults.BatchSize = size
		}
	}
	if lang := os.Getenv("CARTWAVE_LANGUAGE"); lang != "" {
		cfg.Defaults.Language = lang
	}
	if dir := os.Getenv("CARTWAVE_METADATA_DIR"); dir != "" {
		cfg.Defaults.MetadataDir = dir
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// GetBatchSize returns the effective batch size for a project, taking
// into account project-specific overrides. If the project has a specific
// batch size configured, it returns that value. Otherwise, it returns
// the default batch size.
func (c *Config) GetBatchSize(projectKey string) int {
	if projectConfig, ok := c.Projects[projectKey]; ok && projectConfig.BatchSize > 0 {
		return projectConfig.BatchSize
	}
	return c.Defaults.BatchSize
}

// GetLanguage returns the effective export language for a project, taking
// into account project-specific overrides.
func (c *Config) GetLanguage(projectKey string) string {
	if projectConfig, ok := c.Projects[projectKey]; ok && projectConfig.Language != "" {
		return projectConfig.Language
	}
	return c.Defaults.Language
}

// Validate checks if the configuration contains valid values. It ensures
// batch sizes are within the platform's limits, delimiters are usable with
// RFC 4180 output, the language is a well-formed BCP 47 tag, and endpoints
// are not empty. This should be called after loading configuration to catch
// invalid settings early.
func (c *Config) Validate() error {
	if c.Defaults.BatchSize <= 0 {
		return fmt.Errorf("default batch size must be positive, got: %d", c.Defaults.BatchSize)
	}
	if c.Defaults.BatchSize > 500 {
		return fmt.Errorf("default batch size %d exceeds platform query limit of 500", c.Defaults.BatchSize)
	}
	if f := c.Defaults.ExportFormat; f != "csv" && f != "json" {
		return fmt.Errorf("export format must be \"csv\" or \"json\", got: %q", f)
	}
	if c.Defaults.Delimiter != "" && utf8.RuneCountInString(c.Defaults.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got: %q", c.Defaults.Delimiter)
	}
	if c.Defaults.MultiValueDelimiter == "" {
		return fmt.Errorf("multi-value delimiter cannot be empty")
	}
	if _, err := language.Parse(c.Defaults.Language); err != nil {
		return fmt.Errorf("language %q is not a valid BCP 47 tag: %w", c.Defaults.Language, err)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("platform API base URL cannot be empty")
	}
	if c.API.AuthURL == "" {
		return fmt.Errorf("platform auth URL cannot be empty")
	}
	return nil
}
