// Package config handles configuration loading and validation for mrview.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/mrview/internal/core/mr"
	"github.com/colonyops/mrview/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	TUI     TUIConfig    `yaml:"tui"`
	Review  ReviewConfig `yaml:"review"`
	Diff    DiffConfig   `yaml:"diff"`
	Drafts  DraftsConfig `yaml:"drafts"`
	DataDir string       `yaml:"-"` // set by caller, not from config file
}

// ServerConfig points the client at a backend. Every field can be
// overridden from the environment.
type ServerConfig struct {
	BaseURL string        `yaml:"base_url" env:"MRVIEW_BASE_URL"`
	Token   string        `yaml:"token"    env:"MRVIEW_TOKEN"`
	Timeout time.Duration `yaml:"timeout"  env:"MRVIEW_TIMEOUT"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// ReviewConfig controls the review screen.
type ReviewConfig struct {
	// StayAfterAction keeps the review screen open after a successful close
	// or reopen. Merges always return to the list.
	StayAfterAction bool   `yaml:"stay_after_action"`
	ConfirmMerge    *bool  `yaml:"confirm_merge"` // nil = true
	ListStatus      string `yaml:"list_status"`
}

// ShouldConfirmMerge reports whether a merge asks for confirmation first.
func (r ReviewConfig) ShouldConfirmMerge() bool {
	return r.ConfirmMerge == nil || *r.ConfirmMerge
}

// DiffConfig controls diff rendering.
type DiffConfig struct {
	Highlight *bool    `yaml:"highlight"` // nil = true
	Style     string   `yaml:"style"`     // chroma style name
	Collapse  []string `yaml:"collapse"`  // doublestar globs rendered as a placeholder
}

// HighlightEnabled reports whether syntax highlighting is on.
func (d DiffConfig) HighlightEnabled() bool {
	return d.Highlight == nil || *d.Highlight
}

// DraftsConfig controls persisted comment drafts.
type DraftsConfig struct {
	Enabled *bool `yaml:"enabled"` // nil = true
}

// IsEnabled reports whether drafts are persisted.
func (d DraftsConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		TUI: TUIConfig{
			Theme: styles.DefaultTheme,
		},
		Review: ReviewConfig{
			ListStatus: string(mr.StatusOpen),
		},
		Diff: DiffConfig{
			Style:    "monokai",
			Collapse: []string{"**/go.sum", "**/*.lock", "**/vendor/**"},
		},
	}
}

// Load reads configuration with Read and validates it.
func Load(configPath, dataDir string) (*Config, error) {
	cfg, err := Read(configPath, dataDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read reads configuration from the given path, overlays environment
// variables and sets the data directory without validating the result. If
// configPath is empty or doesn't exist, defaults are used.
func Read(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// A missing file is not an error. Existing variables are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays MRVIEW_* variables. A nil environ reads the process
// environment.
func (c *Config) applyEnv(environ map[string]string) error {
	return env.ParseWithOptions(&c.Server, env.Options{Environment: environ})
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = defaults.Server.Timeout
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.Review.ListStatus == "" {
		c.Review.ListStatus = defaults.Review.ListStatus
	}
	if c.Diff.Style == "" {
		c.Diff.Style = defaults.Diff.Style
	}
}
