package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/project"
)

// Distances geocodes the project locations, routes every pair and writes
// distance_matrix.csv and distances.csv. Nothing is written when the run
// is cancelled.
func (s *Service) Distances(ctx context.Context, ws *Workspace) (distance.Result, error) {
	if err := project.Require(ws.Store, "distances"); err != nil {
		return distance.Result{}, err
	}
	locs, err := ws.Store.LoadLocations()
	if err != nil {
		return distance.Result{}, fmt.Errorf("load locations: %w", err)
	}
	if locs.Fix != distance.HeaderOK {
		s.log.Warnf("repaired locations.csv header of %s", ws.Name)
	}
	geocoder, err := distance.NewGeocoder(s.cfg.Services.Geocoder)
	if err != nil {
		return distance.Result{}, fmt.Errorf("geocoder: %w", err)
	}
	router, err := distance.NewRouter(s.cfg.Services.Router)
	if err != nil {
		return distance.Result{}, fmt.Errorf("router: %w", err)
	}

	start := s.now()
	calc := distance.NewCalculator(geocoder, router, s.cfg.Distance, s.bus, s.sink, ws.Logger("distance"))
	res, err := calc.Run(ctx, locs.Postcodes())
	s.finishStage(ws, events.StageGeocoding, res.RunID, start, len(locs.Rows), len(res.GeocodeFailures), err)
	if err != nil {
		return res, err
	}
	if err := ws.Store.SaveCoordinates(res.Locations); err != nil {
		return res, fmt.Errorf("save coordinates: %w", err)
	}
	if err := ws.Store.SaveRoutes(res.Routes); err != nil {
		return res, fmt.Errorf("save routes: %w", err)
	}
	s.finishStage(ws, events.StageRouting, res.RunID, start, res.Pairs, res.RouteFailures, nil)
	s.log.Infof("%s: %d locations, %d routes in %s", ws.Name, len(res.Locations), len(res.Routes), res.Duration)
	return res, nil
}
