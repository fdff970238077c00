package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/mrview/internal/core/styles"
)

var listStatuses = []string{"open", "closed", "merged", "all"}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("server.base_url", c.Server.BaseURL, isHTTPURL),
		criterio.Run("server.timeout", c.Server.Timeout, isPositive),
		criterio.Run("tui.theme", c.TUI.Theme, isKnownTheme),
		criterio.Run("review.list_status", c.Review.ListStatus, isListStatus),
		criterio.Run("diff.style", c.Diff.Style, isChromaStyle),
		c.validateCollapse(),
	)
}

// ValidateDeep runs Validate and then checks the file system: the config
// file and the data directory. An empty configPath skips the file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateCollapse() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Diff.Collapse {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("diff.collapse[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

func isHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func isPositive(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func isKnownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(styles.ThemeNames(), ", "))
	}
	return nil
}

func isListStatus(s string) error {
	for _, v := range listStatuses {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(listStatuses, ", "))
}

func isChromaStyle(name string) error {
	if _, ok := chromastyles.Registry[name]; !ok {
		return fmt.Errorf("unknown chroma style %q", name)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return fmt.Errorf("cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
