package geocode

import (
	"context"
	"fmt"

	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/factory"
	"github.com/kilianp07/fieldroute/core/model"
)

// Static answers from a fixed table, typically the coordinates of an
// earlier run, so a project can be re-routed without geocoding again.
type Static struct {
	points map[string]model.Coordinates
}

func init() {
	_ = distance.RegisterGeocoder("static", func(conf map[string]any) (distance.Geocoder, error) {
		var c struct {
			Points map[string][2]float64 `json:"points"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		locs := make([]model.GeoLocation, 0, len(c.Points))
		for pc, p := range c.Points {
			locs = append(locs, model.GeoLocation{Postcode: pc, Coordinates: model.Coordinates{Latitude: p[0], Longitude: p[1]}})
		}
		return NewStatic(locs), nil
	})
}

// NewStatic indexes locs by normalised postcode.
func NewStatic(locs []model.GeoLocation) *Static {
	s := &Static{points: make(map[string]model.Coordinates, len(locs))}
	for _, l := range locs {
		s.points[model.NormalizePostcode(l.Postcode)] = l.Coordinates
	}
	return s
}

// Geocode implements distance.Geocoder.
func (s *Static) Geocode(_ context.Context, postcode string) (model.Coordinates, error) {
	p, ok := s.points[model.NormalizePostcode(postcode)]
	if !ok {
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, postcode)
	}
	return p, nil
}
