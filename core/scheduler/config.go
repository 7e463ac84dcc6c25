package scheduler

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SchedulerConfig defines the working day and appointment rules.
type SchedulerConfig struct {
	StartHour            int     `json:"start_hour" yaml:"start_hour"`
	EndHour              int     `json:"end_hour" yaml:"end_hour"`
	SlotMinutes          int     `json:"slot_minutes" yaml:"slot_minutes"`
	DefaultDuration      int     `json:"default_duration" yaml:"default_duration"`
	MinDuration          int     `json:"min_duration" yaml:"min_duration"`
	MaxDuration          int     `json:"max_duration" yaml:"max_duration"`
	MaxPerDay            int     `json:"max_per_day" yaml:"max_per_day"`
	DefaultTravelMinutes int     `json:"default_travel_minutes" yaml:"default_travel_minutes"`
	EfficiencyThreshold  float64 `json:"efficiency_threshold" yaml:"efficiency_threshold"`
}

// SetDefaults fills unset fields.
func (c *SchedulerConfig) SetDefaults() {
	if c.StartHour == 0 && c.EndHour == 0 {
		c.StartHour, c.EndHour = 8, 19
	}
	if c.SlotMinutes == 0 {
		c.SlotMinutes = 30
	}
	if c.DefaultDuration == 0 {
		c.DefaultDuration = 60
	}
	if c.MinDuration == 0 {
		c.MinDuration = 30
	}
	if c.MaxDuration == 0 {
		c.MaxDuration = 180
	}
	if c.MaxPerDay == 0 {
		c.MaxPerDay = 4
	}
	if c.DefaultTravelMinutes == 0 {
		c.DefaultTravelMinutes = 30
	}
	if c.EfficiencyThreshold == 0 {
		c.EfficiencyThreshold = 1.3
	}
}

// Validate checks that the working day is well formed.
func (c SchedulerConfig) Validate() error {
	if c.StartHour < 0 || c.EndHour > 24 {
		return fmt.Errorf("working hours must be within 0..24")
	}
	if c.StartHour >= c.EndHour {
		return errors.New("start hour must be before end hour")
	}
	if c.SlotMinutes <= 0 || 60%c.SlotMinutes != 0 {
		return errors.New("slot_minutes must divide an hour")
	}
	if c.MinDuration <= 0 || c.MinDuration > c.MaxDuration {
		return errors.New("invalid duration range")
	}
	if c.DefaultDuration < c.MinDuration || c.DefaultDuration > c.MaxDuration {
		return errors.New("default_duration outside duration range")
	}
	if c.MaxPerDay <= 0 {
		return errors.New("max_per_day must be positive")
	}
	return nil
}

// ProjectFile holds per-project overrides of the scheduler settings.
const ProjectFile = "scheduler.yaml"

// WithOverrides decodes the YAML file at path over a copy of c, so keys the
// file leaves out keep c's values. A missing file returns c unchanged.
func (c SchedulerConfig) WithOverrides(path string) (SchedulerConfig, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	defer f.Close()
	out := c
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	out.SetDefaults()
	if err := out.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}
