package distance

import "time"

// Config throttles the calls made to the external services.
type Config struct {
	// GeocodeDelayMS is the pause between two geocoding requests.
	GeocodeDelayMS int `json:"geocode_delay_ms"`
	// RouteDelayMS is the pause between two routing requests.
	RouteDelayMS int `json:"route_delay_ms"`
	// GeocodeReportEvery publishes progress every N geocoded postcodes.
	GeocodeReportEvery int `json:"geocode_report_every"`
	// RouteReportEvery publishes progress every N routed pairs.
	RouteReportEvery int `json:"route_report_every"`
}

// SetDefaults applies the public API courtesy delays.
func (c *Config) SetDefaults() {
	if c.GeocodeDelayMS == 0 {
		c.GeocodeDelayMS = 100
	}
	if c.RouteDelayMS == 0 {
		c.RouteDelayMS = 1000
	}
	if c.GeocodeReportEvery <= 0 {
		c.GeocodeReportEvery = 5
	}
	if c.RouteReportEvery <= 0 {
		c.RouteReportEvery = 20
	}
}

// GeocodeDelay returns the geocoding pause. Negative values disable it.
func (c Config) GeocodeDelay() time.Duration {
	return time.Duration(max(c.GeocodeDelayMS, 0)) * time.Millisecond
}

// RouteDelay returns the routing pause. Negative values disable it.
func (c Config) RouteDelay() time.Duration {
	return time.Duration(max(c.RouteDelayMS, 0)) * time.Millisecond
}

// EstimatedDuration approximates how long routing n postcodes takes.
func (c Config) EstimatedDuration(n int) time.Duration {
	pairs := n * (n - 1) / 2
	return time.Duration(pairs) * (c.RouteDelay() + 200*time.Millisecond)
}
