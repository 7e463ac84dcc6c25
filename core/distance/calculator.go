package distance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

// Geocoder resolves a postcode to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, postcode string) (model.Coordinates, error)
}

// Leg is a driving route between two points.
type Leg struct {
	Minutes float64
	Km      float64
}

// Router measures the driving route between two points.
type Router interface {
	Route(ctx context.Context, from, to model.Coordinates) (Leg, error)
}

// Share of the progress bar given to geocoding; routing takes the rest.
const geocodeShare = 30.0

// Result is the output of a calculator run.
type Result struct {
	RunID           string
	Locations       []model.GeoLocation
	Routes          []model.Route
	GeocodeFailures []string
	RouteFailures   int
	Pairs           int
	Duration        time.Duration
}

// Calculator geocodes postcodes and routes every pair of them.
type Calculator struct {
	geo    Geocoder
	router Router
	cfg    Config
	bus    eventbus.EventBus
	sink   metrics.MetricsSink
	log    logger.Logger
	wait   func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewCalculator builds a Calculator. bus and sink may be nil.
func NewCalculator(geo Geocoder, router Router, cfg Config, bus eventbus.EventBus, sink metrics.MetricsSink, log logger.Logger) *Calculator {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Calculator{geo: geo, router: router, cfg: cfg, bus: bus, sink: sink, log: log, wait: sleep, now: time.Now}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run geocodes the unique postcodes and fetches a route for every unordered
// pair of the ones that resolved. Failed lookups are logged and skipped.
// When ctx is cancelled the partial result is returned with ctx's error.
func (c *Calculator) Run(ctx context.Context, postcodes []string) (Result, error) {
	start := c.now()
	res := Result{RunID: uuid.NewString()}
	unique := dedupe(postcodes)
	if len(unique) == 0 {
		return res, ErrNoPostcodes
	}
	c.log.Infof("run %s: geocoding %d postcodes", res.RunID, len(unique))

	coords := make(map[string]model.Coordinates, len(unique))
	for i, pc := range unique {
		if err := ctx.Err(); err != nil {
			return c.finish(res, coords, start), err
		}
		t0 := c.now()
		pt, err := c.geo.Geocode(ctx, pc)
		c.recordCall("geocoder", err == nil, c.now().Sub(t0))
		if err != nil {
			c.log.Warnf("geocode %s failed: %v", pc, err)
			res.GeocodeFailures = append(res.GeocodeFailures, pc)
		} else {
			coords[pc] = pt
		}
		done := i + 1
		if done%c.cfg.GeocodeReportEvery == 0 || done == len(unique) {
			c.progress(res.RunID, events.StageGeocoding, done, len(unique), float64(done)/float64(len(unique))*geocodeShare)
		}
		if done < len(unique) {
			if err := c.wait(ctx, c.cfg.GeocodeDelay()); err != nil {
				return c.finish(res, coords, start), err
			}
		}
	}
	res = c.finish(res, coords, start)
	c.log.Infof("run %s: geocoded %d/%d postcodes", res.RunID, len(coords), len(unique))

	names := make([]string, 0, len(coords))
	for pc := range coords {
		names = append(names, pc)
	}
	sort.Strings(names)
	res.Pairs = len(names) * (len(names) - 1) / 2
	if res.Pairs > 0 {
		c.log.Infof("run %s: routing %d pairs, estimated %s", res.RunID, res.Pairs, c.cfg.EstimatedDuration(len(names)).Round(time.Second))
	}

	done := 0
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if err := ctx.Err(); err != nil {
				res.Duration = c.now().Sub(start)
				return res, err
			}
			a, b := names[i], names[j]
			t0 := c.now()
			leg, err := c.router.Route(ctx, coords[a], coords[b])
			c.recordCall("router", err == nil, c.now().Sub(t0))
			if err != nil {
				res.RouteFailures++
				c.log.Debugw("route failed", map[string]any{"origin": a, "destination": b, "error": err.Error()})
			} else {
				res.Routes = append(res.Routes, model.Route{
					Origin:         a,
					Destination:    b,
					DrivingMinutes: model.Round2(leg.Minutes),
					DistanceKm:     model.Round2(leg.Km),
				})
			}
			done++
			if done%c.cfg.RouteReportEvery == 0 || done == res.Pairs {
				c.progress(res.RunID, events.StageRouting, done, res.Pairs, geocodeShare+float64(done)/float64(res.Pairs)*(100-geocodeShare))
			}
			if done < res.Pairs {
				if err := c.wait(ctx, c.cfg.RouteDelay()); err != nil {
					res.Duration = c.now().Sub(start)
					return res, err
				}
			}
		}
	}
	if res.RouteFailures > 0 {
		c.log.Warnf("run %s: %d routes failed", res.RunID, res.RouteFailures)
	}
	c.progress(res.RunID, events.StageRouting, res.Pairs, res.Pairs, 100)
	res.Duration = c.now().Sub(start)
	return res, nil
}

func (c *Calculator) finish(res Result, coords map[string]model.Coordinates, start time.Time) Result {
	res.Locations = res.Locations[:0]
	for pc, pt := range coords {
		res.Locations = append(res.Locations, model.GeoLocation{Postcode: pc, Coordinates: pt})
	}
	sort.Slice(res.Locations, func(i, j int) bool { return res.Locations[i].Postcode < res.Locations[j].Postcode })
	res.Duration = c.now().Sub(start)
	return res
}

func (c *Calculator) progress(runID, stage string, done, total int, pct float64) {
	if rec, ok := c.sink.(metrics.ProgressRecorder); ok {
		_ = rec.RecordProgress(metrics.Progress{Stage: stage, Percent: pct})
	}
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.ProgressEvent{
		RunID:   runID,
		Stage:   stage,
		Done:    done,
		Total:   total,
		Percent: pct,
		At:      c.now(),
	})
}

func (c *Calculator) recordCall(service string, ok bool, d time.Duration) {
	rec, isRec := c.sink.(metrics.APICallRecorder)
	if !isRec {
		return
	}
	if err := rec.RecordAPICall(metrics.APICall{Service: service, Success: ok, Latency: d, Time: c.now()}); err != nil {
		c.log.Debugf("record api call: %v", err)
	}
}

func dedupe(postcodes []string) []string {
	seen := make(map[string]bool, len(postcodes))
	out := make([]string, 0, len(postcodes))
	for _, p := range postcodes {
		pc := model.NormalizePostcode(p)
		if pc == "" || seen[pc] {
			continue
		}
		seen[pc] = true
		out = append(out, pc)
	}
	return out
}
