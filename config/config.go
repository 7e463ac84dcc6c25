package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fieldroute/core/cluster"
	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/journal"
	"github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/core/scheduler"
	"github.com/kilianp07/fieldroute/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: FR_SCHEDULER__MAX_PER_DAY=5.
const EnvPrefix = "FR_"

type Config struct {
	// LauncherPath is the launcher config file; the projects directory
	// defaults to a sibling "Projects" folder.
	LauncherPath string                    `json:"launcher_path"`
	Services     ServicesConfig            `json:"services"`
	Distance     distance.Config           `json:"distance"`
	// Cluster holds the default clustering parameters; a project file may
	// override them and must name the depot.
	Cluster      cluster.Params            `json:"cluster"`
	Scheduler    scheduler.SchedulerConfig `json:"scheduler"`
	Metrics      metrics.Config            `json:"metrics"`
	Journal      journal.Config            `json:"journal"`
	Logging      LoggingConfig             `json:"logging"`
	Sentry       SentryConfig              `json:"sentry"`
	MQTT         mqtt.Config               `json:"mqtt"`
}

// Load reads the YAML or JSON file at path, applies FR_ environment
// overrides and fills defaults. An empty path loads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.LauncherPath == "" {
		c.LauncherPath = DefaultLauncherPath()
	}
	c.Services.SetDefaults()
	c.Distance.SetDefaults()
	c.Cluster.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Journal.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"services", c.Services.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"journal", c.Journal.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"mqtt", c.MQTT.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// DefaultLauncherPath places the launcher config under the user config
// directory.
func DefaultLauncherPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "fieldroute", "launcher_config.json")
}
