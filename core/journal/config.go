package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and tunes the journal backend.
type Config struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation of the JSONL file.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies a JSONL journal under the user config directory.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		name := "journal.jsonl"
		if c.Backend == "sqlite" {
			name = "journal.db"
		}
		c.Path = filepath.Join(dir, "fieldroute", name)
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	return nil
}

// Open builds the configured store. The "none" backend returns a store that
// discards every record.
func Open(c Config) (Store, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	case "none":
		return Discard{}, nil
	default:
		return NewJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}
}

// Discard drops every record.
type Discard struct{}

func (Discard) Append(context.Context, Record) error           { return nil }
func (Discard) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (Discard) Close() error                                   { return nil }
