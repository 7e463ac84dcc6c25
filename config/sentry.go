package config

import "fmt"

// SentryConfig defines settings for Sentry error monitoring. Reporting is
// disabled while DSN is empty.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults fills the environment name.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry traces_sample_rate must be within [0,1], got %v", c.TracesSampleRate)
	}
	return nil
}
