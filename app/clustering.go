package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldroute/core/cluster"
	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/matrix"
	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/project"
	"github.com/kilianp07/fieldroute/infra/report"
)

// ClusterOptions override the clustering parameters of a run.
type ClusterOptions struct {
	Regions int
	Depot   string
	// Save stores the effective parameters in the project file.
	Save bool
}

// ClusterParams returns the parameters of ws: the project file when
// present, the configured defaults otherwise.
func (s *Service) ClusterParams(ws *Workspace) (cluster.Params, error) {
	p, err := cluster.LoadParams(ws.Store.Path(model.FileParams))
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, fs.ErrNotExist):
		p = s.cfg.Cluster
		p.SetDefaults()
		return p, nil
	default:
		return p, fmt.Errorf("load %s: %w", model.FileParams, err)
	}
}

// Cluster splits the project customers into regions and writes
// clustered_regions.csv, region_summary.csv and region_names.csv.
func (s *Service) Cluster(ws *Workspace, opts ClusterOptions) (*cluster.Result, error) {
	if err := project.Require(ws.Store, "clustering"); err != nil {
		return nil, err
	}
	p, err := s.ClusterParams(ws)
	if err != nil {
		return nil, err
	}
	if opts.Regions > 0 {
		p.Regions = opts.Regions
	}
	if strings.TrimSpace(opts.Depot) != "" {
		p.Depot = model.NormalizePostcode(opts.Depot)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if opts.Save {
		if err := cluster.SaveParams(ws.Store.Path(model.FileParams), p); err != nil {
			return nil, fmt.Errorf("save %s: %w", model.FileParams, err)
		}
	}

	runID := uuid.NewString()
	start := s.now()
	res, err := s.cluster(ws, p)
	items := 0
	if res != nil {
		items = len(res.Customers())
	}
	s.finishStage(ws, events.StageClustering, runID, start, items, 0, err)
	if err != nil {
		return nil, err
	}
	s.recordQuality(ws, res)
	return res, nil
}

func (s *Service) cluster(ws *Workspace, p cluster.Params) (*cluster.Result, error) {
	locs, err := ws.Store.LoadCoordinates()
	if err != nil {
		return nil, fmt.Errorf("load coordinates: %w", err)
	}
	routes, err := ws.Store.LoadRoutes()
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	rows, err := ws.Store.LoadLocations()
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	clients := make(map[string]string, len(rows.Rows))
	for _, r := range rows.Rows {
		clients[r.Postcode] = r.ClientName
	}
	postcodes := make([]string, len(locs))
	for i, l := range locs {
		postcodes[i] = l.Postcode
	}
	times := matrix.Build(postcodes, routes)

	res, err := cluster.Run(locs, clients, times, p, ws.Logger("cluster"))
	if err != nil {
		return nil, err
	}
	if out := res.Outcome(); out != nil && out.OverlapsRemain {
		s.log.Warnf("%s: some region shapes still overlap", ws.Name)
	}
	return res, s.saveRegions(ws, res)
}

// EditRegions loads the saved regions, applies edit and writes the three
// region files back.
func (s *Service) EditRegions(ws *Workspace, edit func(r *cluster.Result) error) (*cluster.Result, error) {
	res, err := s.LoadRegions(ws)
	if err != nil {
		return nil, err
	}
	if err := edit(res); err != nil {
		return nil, err
	}
	if err := s.saveRegions(ws, res); err != nil {
		return nil, err
	}
	s.recordQuality(ws, res)
	return res, nil
}

// LoadRegions rebuilds the clustering result from the saved files.
func (s *Service) LoadRegions(ws *Workspace) (*cluster.Result, error) {
	rows, err := ws.Store.LoadAssignments()
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	p, err := s.ClusterParams(ws)
	if err != nil {
		return nil, err
	}
	var times *matrix.DrivingTimes
	if ws.Store.Exists(model.FileDistances) {
		routes, err := ws.Store.LoadRoutes()
		if err != nil {
			return nil, fmt.Errorf("load routes: %w", err)
		}
		postcodes := make([]string, len(rows))
		for i, r := range rows {
			postcodes[i] = r.Postcode
		}
		times = matrix.Build(postcodes, routes)
	}
	res, err := cluster.FromAssignments(rows, times, p)
	if err != nil {
		return nil, err
	}
	styles, err := ws.Store.LoadStyles()
	if err != nil {
		return nil, fmt.Errorf("load region names: %w", err)
	}
	res.SetStyles(styles)
	return res, nil
}

func (s *Service) saveRegions(ws *Workspace, res *cluster.Result) error {
	if err := ws.Store.SaveAssignments(res.Assignments()); err != nil {
		return fmt.Errorf("save regions: %w", err)
	}
	if err := ws.Store.SaveSummary(res.Summary()); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if err := ws.Store.SaveStyles(res.Styles()); err != nil {
		return fmt.Errorf("save region names: %w", err)
	}
	return nil
}

// recordQuality reports per-region driving time and the ratio between the
// busiest and the lightest region.
func (s *Service) recordQuality(ws *Workspace, res *cluster.Result) {
	rec, ok := s.sink.(coremetrics.ClusterRecorder)
	if !ok {
		return
	}
	custs := res.Customers()
	labels := make([]int, len(custs))
	postcodes := make([]string, len(custs))
	for i, c := range custs {
		labels[i] = c.Region - 1
		postcodes[i] = c.Postcode
	}
	k := res.Regions()
	minutes := cluster.Metrics(labels, postcodes, res.Times(), k)

	now := s.now()
	lo, hi := math.Inf(1), 0.0
	regions := make([]coremetrics.RegionQuality, 0, k)
	for i, m := range minutes {
		region := i + 1
		regions = append(regions, coremetrics.RegionQuality{
			Project:      ws.Name,
			Region:       region,
			Customers:    len(res.Members(region)),
			TotalMinutes: m,
			MinimumDays:  res.MinimumDays(region),
			Time:         now,
		})
		if m > 0 {
			lo, hi = math.Min(lo, m), math.Max(hi, m)
		}
	}
	ratio := 1.0
	if hi > 0 && !math.IsInf(lo, 1) {
		ratio = hi / lo
	}
	if err := rec.RecordClusterQuality(ratio, regions); err != nil {
		s.log.Warnf("record cluster quality: %v", err)
	}
}

// RegionMap renders the saved regions as an HTML page.
func (s *Service) RegionMap(ws *Workspace, w io.Writer) error {
	res, err := s.LoadRegions(ws)
	if err != nil {
		return err
	}
	prefs := ws.Prefs()
	label := func(a model.Assignment) string {
		return prefs.Label(model.Location{Postcode: a.Postcode, ClientName: a.ClientName})
	}
	title := ws.Name + " regions"
	return report.WritePage(w, title,
		report.RegionMap(title, res.Assignments(), res.Style, label),
		report.SummaryChart(res.Summary(), res.Style),
	)
}
