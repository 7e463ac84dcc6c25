// Package factory instantiates pluggable modules (geocoders, routers and
// metrics sinks) from configuration. A module is selected by a type name;
// its settings are a raw map decoded into the implementation's own config
// struct.
//
//	var routers = factory.NewRegistry[distance.Router]("router")
//
//	routers.Register("haversine", func(conf map[string]any) (distance.Router, error) {
//	    var c struct{ SpeedKmh float64 `json:"speed_kmh"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return routing.NewEstimator(0, c.SpeedKmh), nil
//	})
//	r, err := routers.Create(factory.ModuleConfig{Type: "haversine", Conf: map[string]any{"speed_kmh": 40}})
package factory
