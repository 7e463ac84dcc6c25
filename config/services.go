package config

import (
	"fmt"

	"github.com/kilianp07/fieldroute/core/factory"
)

// ServicesConfig selects the external services used by the distance
// calculator. Each service is defined by its registered type and a raw
// configuration map decoded by the service itself.
type ServicesConfig struct {
	Geocoder factory.ModuleConfig `json:"geocoder"`
	Router   factory.ModuleConfig `json:"router"`
}

// SetDefaults points at the public postcodes.io and OSRM endpoints.
func (c *ServicesConfig) SetDefaults() {
	if c.Geocoder.Type == "" {
		c.Geocoder.Type = "postcodes_io"
	}
	if c.Router.Type == "" {
		c.Router.Type = "osrm"
	}
}

// Validate rejects empty service types.
func (c ServicesConfig) Validate() error {
	if c.Geocoder.Type == "" {
		return fmt.Errorf("geocoder type is required")
	}
	if c.Router.Type == "" {
		return fmt.Errorf("router type is required")
	}
	return nil
}
