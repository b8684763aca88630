// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input
	Input string `json:"input,omitempty"` // Path to the request JSON file

	// Generation
	EmailType string `json:"email_type,omitempty"` // simple, personalized, or contextual
	Tone      string `json:"tone,omitempty"`       // formal, friendly, concise, or enthusiastic
	Variants  int    `json:"variants,omitempty"`   // Number of draft variants to generate

	// Services
	APIKey        string `json:"api_key,omitempty"`        // Gemini API key
	DatabaseURL   string `json:"database_url,omitempty"`   // PostgreSQL connection URL
	EnrichmentURL string `json:"enrichment_url,omitempty"` // Enrichment service base URL

	// Behavior
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"` // Overall run timeout
	Verbose        bool `json:"verbose,omitempty"`         // Print detailed debug information
	JSONLogs       bool `json:"json_logs,omitempty"`       // Emit JSON-encoded logs
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are handled by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Variants < 0 {
		return fmt.Errorf("config error: 'variants' must be non-negative")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}

	switch c.EmailType {
	case "", "simple", "personalized", "contextual":
	default:
		return fmt.Errorf("config error: unknown email_type %q", c.EmailType)
	}
	switch c.Tone {
	case "", "formal", "friendly", "concise", "enthusiastic":
	default:
		return fmt.Errorf("config error: unknown tone %q", c.Tone)
	}

	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Config file values act as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.EmailType == "" {
		result.EmailType = defaults.EmailType
	}
	if result.Tone == "" {
		result.Tone = defaults.Tone
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.EnrichmentURL == "" {
		result.EnrichmentURL = defaults.EnrichmentURL
	}

	if result.Variants == 0 {
		result.Variants = defaults.Variants
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
