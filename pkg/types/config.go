// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tldr-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScholarConfig holds settings for the Semantic Scholar search client.
type ScholarConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the graph API root (default https://api.semanticscholar.org/graph/v1).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is an optional API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// SearchLimit is the number of ranked candidates requested in the
	// search phase (default 5).
	SearchLimit int `json:"search_limit" yaml:"search_limit" mapstructure:"search_limit"`
}

// BatchConfig holds settings for queue processing.
type BatchConfig struct {
	// PacingDelay is the delay between consecutive works (default 1s).
	PacingDelay time.Duration `json:"pacing_delay" yaml:"pacing_delay" mapstructure:"pacing_delay"`

	// AddDelay is how long newly added works settle before they are
	// resolved (default 3s).
	AddDelay time.Duration `json:"add_delay" yaml:"add_delay" mapstructure:"add_delay"`
}

// OutcomeBackend selects where resolution outcomes are persisted.
type OutcomeBackend string

const (
	OutcomeBackendSQLite OutcomeBackend = "sqlite"
	OutcomeBackendFile   OutcomeBackend = "file"
)

// OutcomeConfig holds settings for the outcome store.
type OutcomeConfig struct {
	// Backend selects sqlite (outcomes table in the library database) or
	// file (a YAML document at Path).
	Backend OutcomeBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the YAML outcome file used by the file backend.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LibraryConfig holds settings for the local library database.
type LibraryConfig struct {
	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all component configurations.
type Config struct {
	Library  LibraryConfig `json:"library" yaml:"library" mapstructure:"library"`
	Outcomes OutcomeConfig `json:"outcomes" yaml:"outcomes" mapstructure:"outcomes"`
	Scholar  ScholarConfig `json:"scholar" yaml:"scholar" mapstructure:"scholar"`
	Batch    BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
	Log      LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
