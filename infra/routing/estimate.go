package routing

import (
	"context"

	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/factory"
	"github.com/kilianp07/fieldroute/core/geo"
	"github.com/kilianp07/fieldroute/core/model"
)

// Estimator derives a driving leg from the great-circle distance, inflated
// by a road factor and driven at a constant speed.
type Estimator struct {
	RoadFactor float64 `json:"road_factor"`
	SpeedKmh   float64 `json:"speed_kmh"`
}

func init() {
	_ = distance.RegisterRouter("haversine", func(conf map[string]any) (distance.Router, error) {
		var e Estimator
		if err := factory.Decode(conf, &e); err != nil {
			return nil, err
		}
		return NewEstimator(e.RoadFactor, e.SpeedKmh), nil
	})
}

// NewEstimator defaults to a 1.3 road factor at 50 km/h.
func NewEstimator(roadFactor, speedKmh float64) *Estimator {
	if roadFactor <= 0 {
		roadFactor = 1.3
	}
	if speedKmh <= 0 {
		speedKmh = 50
	}
	return &Estimator{RoadFactor: roadFactor, SpeedKmh: speedKmh}
}

// Route implements distance.Router.
func (e *Estimator) Route(ctx context.Context, from, to model.Coordinates) (distance.Leg, error) {
	if err := ctx.Err(); err != nil {
		return distance.Leg{}, err
	}
	km := geo.HaversineKm(from, to) * e.RoadFactor
	return distance.Leg{Minutes: km / e.SpeedKmh * 60, Km: km}, nil
}
