package distance

import "github.com/kilianp07/fieldroute/core/factory"

var (
	geocoderRegistry = factory.NewRegistry[Geocoder]("geocoder")
	routerRegistry   = factory.NewRegistry[Router]("router")
)

// RegisterGeocoder adds a geocoder factory identified by name.
func RegisterGeocoder(name string, f factory.Factory[Geocoder]) error {
	return geocoderRegistry.Register(name, f)
}

// RegisterRouter adds a router factory identified by name.
func RegisterRouter(name string, f factory.Factory[Router]) error {
	return routerRegistry.Register(name, f)
}

// NewGeocoder creates the configured geocoder.
func NewGeocoder(cfg factory.ModuleConfig) (Geocoder, error) {
	return geocoderRegistry.Create(cfg)
}

// NewRouter creates the configured router.
func NewRouter(cfg factory.ModuleConfig) (Router, error) {
	return routerRegistry.Create(cfg)
}
