package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LoggingConfig defines log verbosity and destination.
type LoggingConfig struct {
	// Level is a zerolog level name: "debug", "info", "warn" or "error".
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
	// File optionally receives a rotated copy of the log.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 5
	}
}

// Validate checks the level and format names.
func (c LoggingConfig) Validate() error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
