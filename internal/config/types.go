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

// Package config types define the configuration structures used throughout
// cartwave-export. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for cartwave-export.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	API      APIConfig                `yaml:"api"`
	Defaults DefaultsConfig           `yaml:"defaults"`
	Projects map[string]ProjectConfig `yaml:"projects"`
}

// APIConfig contains CartWave platform settings including API endpoints
// and the names of the environment variables that hold credentials. This
// allows easy configuration for self-hosted or regional platform deployments
// by specifying custom endpoints.
type APIConfig struct {
	BaseURL         string `yaml:"base_url"`
	AuthURL         string `yaml:"auth_url"`
	TokenEnv        string `yaml:"token_env"`
	ClientIDEnv     string `yaml:"client_id_env"`
	ClientSecretEnv string `yaml:"client_secret_env"`
}

// DefaultsConfig contains default settings that apply to all export operations
// unless overridden by project-specific settings or command-line flags.
// These settings control the core behavior of the export process.
type DefaultsConfig struct {
	BatchSize           int    `yaml:"batch_size"`
	ExportFormat        string `yaml:"export_format"`
	Delimiter           string `yaml:"delimiter"`
	MultiValueDelimiter string `yaml:"multi_value_delimiter"`
	Language            string `yaml:"language"`
	MetadataDir         string `yaml:"metadata_dir"`
}

// ProjectConfig contains project-specific overrides that allow fine-tuning
// export behavior for individual projects. This is useful when certain
// projects have special requirements, such as lower batch sizes for
// projects with very large discount-code payloads or a different store
// language.
type ProjectConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Language  string `yaml:"language"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults target the hosted CartWave platform but can be
// overridden for self-hosted deployments or special requirements.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         "https://api.cartwave.io",
			AuthURL:         "https://auth.cartwave.io",
			TokenEnv:        "CARTWAVE_ACCESS_TOKEN",
			ClientIDEnv:     "CARTWAVE_CLIENT_ID",
			ClientSecretEnv: "CARTWAVE_CLIENT_SECRET",
		},
		Defaults: DefaultsConfig{
			BatchSize:           500,
			ExportFormat:        "json",
			Delimiter:           ",",
			MultiValueDelimiter: ";",
			Language:            "en",
			MetadataDir:         "~/.cartwave/exports",
		},
		Projects: make(map[string]ProjectConfig),
	}
}
