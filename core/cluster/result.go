package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/fieldroute/core/geo"
	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/matrix"
	"github.com/kilianp07/fieldroute/core/model"
)

var (
	// ErrDepotNotFound is returned when the home base is not among the
	// geocoded locations.
	ErrDepotNotFound = errors.New("home base postcode not found in locations")
	// ErrNoCustomers is returned when only the depot is known.
	ErrNoCustomers = errors.New("no customers to cluster")
	// ErrUnknownPostcode is returned when editing a postcode that is not a customer.
	ErrUnknownPostcode = errors.New("postcode not in clustering results")
	// ErrDepotLocked is returned when trying to move the depot.
	ErrDepotLocked = errors.New("home base cannot be assigned to a region")
	// ErrInvalidRegion is returned for a region outside 1..n and not excluded.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrNoChange is returned when a postcode is already in the target region.
	ErrNoChange = errors.New("postcode already in region")
	// ErrEmpty is returned when loading a results file with no rows.
	ErrEmpty = errors.New("no clustering results")
)

// Result is a clustering of customers around a depot. It is mutable
// through the editing methods and is not safe for concurrent use.
type Result struct {
	Depot     model.Assignment
	customers []model.Assignment
	regions   int
	styles    map[int]model.RegionStyle
	times     *matrix.DrivingTimes
	params    Params
	outcome   *Outcome
}

// Run clusters geocoded locations. clients maps postcodes to optional
// client names. times may be nil, in which case minimum days fall back to a
// customers-per-day estimate.
func Run(locs []model.GeoLocation, clients map[string]string, times *matrix.DrivingTimes, p Params, log logger.Logger) (*Result, error) {
	depot := model.NormalizePostcode(p.Depot)
	var (
		dep   *model.GeoLocation
		custs []model.GeoLocation
	)
	seen := make(map[string]bool, len(locs))
	for i := range locs {
		pc := model.NormalizePostcode(locs[i].Postcode)
		if seen[pc] {
			continue
		}
		seen[pc] = true
		l := locs[i]
		l.Postcode = pc
		if pc == depot {
			dep = &l
			continue
		}
		custs = append(custs, l)
	}
	if dep == nil {
		return nil, fmt.Errorf("%w: %s", ErrDepotNotFound, depot)
	}
	if len(custs) == 0 {
		return nil, ErrNoCustomers
	}
	sort.Slice(custs, func(i, j int) bool { return custs[i].Postcode < custs[j].Postcode })

	pts := make([]geo.Point, len(custs))
	pcs := make([]string, len(custs))
	for i, c := range custs {
		pts[i] = geo.FromCoordinates(c.Coordinates)
		pcs[i] = c.Postcode
	}
	log.Infof("clustering %d customers into %d regions around %s", len(custs), p.Regions, depot)
	out := NewBalancer(p, log).Balance(pts, pcs, times, p.Regions)

	r := &Result{
		Depot: model.Assignment{
			Postcode:    dep.Postcode,
			ClientName:  clients[dep.Postcode],
			Coordinates: dep.Coordinates,
			Region:      model.RegionDepot,
		},
		regions: p.Regions,
		styles:  map[int]model.RegionStyle{},
		times:   times,
		params:  p,
		outcome: &out,
	}
	for i, c := range custs {
		r.customers = append(r.customers, model.Assignment{
			Postcode:    c.Postcode,
			ClientName:  clients[c.Postcode],
			Coordinates: c.Coordinates,
			Region:      out.Labels[i] + 1,
		})
	}
	return r, nil
}

// FromAssignments rebuilds a Result from a saved clustered_regions.csv. The
// depot is the region 0 row, else the first excluded row, else the first
// row. The region count is the highest region found.
func FromAssignments(rows []model.Assignment, times *matrix.DrivingTimes, p Params) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	depotAt := -1
	for i, a := range rows {
		if a.Region == model.RegionDepot {
			depotAt = i
			break
		}
	}
	if depotAt < 0 {
		for i, a := range rows {
			if a.Region == model.RegionExcluded {
				depotAt = i
				break
			}
		}
	}
	if depotAt < 0 {
		depotAt = 0
	}
	r := &Result{styles: map[int]model.RegionStyle{}, times: times, params: p}
	r.Depot = rows[depotAt]
	r.Depot.Postcode = model.NormalizePostcode(r.Depot.Postcode)
	r.Depot.Region = model.RegionDepot
	for i, a := range rows {
		if i == depotAt || a.Region == model.RegionDepot {
			continue
		}
		a.Postcode = model.NormalizePostcode(a.Postcode)
		if a.Region > r.regions {
			r.regions = a.Region
		}
		r.customers = append(r.customers, a)
	}
	sort.SliceStable(r.customers, func(i, j int) bool { return r.customers[i].Postcode < r.customers[j].Postcode })
	r.params.Depot = r.Depot.Postcode
	return r, nil
}

// Regions returns the number of regions.
func (r *Result) Regions() int { return r.regions }

// Params returns the parameters the result was built with.
func (r *Result) Params() Params { return r.params }

// Outcome returns the balancing metrics of a fresh run, nil for loaded results.
func (r *Result) Outcome() *Outcome { return r.outcome }

// Times returns the driving-time matrix, nil when none was given.
func (r *Result) Times() *matrix.DrivingTimes { return r.times }

// Customers returns a copy of the customer assignments sorted by postcode.
func (r *Result) Customers() []model.Assignment {
	return append([]model.Assignment(nil), r.customers...)
}

// Assignments returns the rows of clustered_regions.csv: the depot first,
// then regions in ascending order and excluded customers last.
func (r *Result) Assignments() []model.Assignment {
	rows := r.Customers()
	rank := func(region int) int {
		if region == model.RegionExcluded {
			return math.MaxInt
		}
		return region
	}
	sort.SliceStable(rows, func(i, j int) bool { return rank(rows[i].Region) < rank(rows[j].Region) })
	return append([]model.Assignment{r.Depot}, rows...)
}

// Members returns the postcodes of region in postcode order.
func (r *Result) Members(region int) []string {
	var pcs []string
	for _, c := range r.customers {
		if c.Region == region {
			pcs = append(pcs, c.Postcode)
		}
	}
	return pcs
}

// RegionOf returns the region of postcode.
func (r *Result) RegionOf(postcode string) (int, error) {
	pc := model.NormalizePostcode(postcode)
	if pc == r.Depot.Postcode {
		return model.RegionDepot, nil
	}
	for _, c := range r.customers {
		if c.Postcode == pc {
			return c.Region, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPostcode, pc)
}

// Move reassigns postcode to region, which is either 1..Regions() or
// model.RegionExcluded. It returns the previous region.
func (r *Result) Move(postcode string, region int) (int, error) {
	pc := model.NormalizePostcode(postcode)
	if pc == r.Depot.Postcode {
		return 0, ErrDepotLocked
	}
	if region != model.RegionExcluded && (region < 1 || region > r.regions) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegion, region)
	}
	for i := range r.customers {
		if r.customers[i].Postcode != pc {
			continue
		}
		from := r.customers[i].Region
		if from == region {
			return from, ErrNoChange
		}
		r.customers[i].Region = region
		return from, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPostcode, pc)
}

// Exclude removes postcode from every region.
func (r *Result) Exclude(postcode string) (int, error) {
	return r.Move(postcode, model.RegionExcluded)
}

// NewRegion creates region Regions()+1 and moves postcode into it.
func (r *Result) NewRegion(postcode string) (int, error) {
	if _, err := r.RegionOf(postcode); err != nil {
		return 0, err
	}
	if model.NormalizePostcode(postcode) == r.Depot.Postcode {
		return 0, ErrDepotLocked
	}
	r.regions++
	if _, err := r.Move(postcode, r.regions); err != nil {
		r.regions--
		return 0, err
	}
	return r.regions, nil
}

// Summary returns one row per region plus an Excluded row when some
// customers are excluded. Minimum days are filled for numbered regions.
func (r *Result) Summary() []model.RegionSummary {
	var out []model.RegionSummary
	for region := 1; region <= r.regions; region++ {
		pcs := r.Members(region)
		out = append(out, model.RegionSummary{
			Region:        region,
			CustomerCount: len(pcs),
			Postcodes:     pcs,
			MinimumDays:   r.MinimumDays(region),
		})
	}
	if ex := r.Members(model.RegionExcluded); len(ex) > 0 {
		out = append(out, model.RegionSummary{
			Region:        model.RegionExcluded,
			Excluded:      true,
			CustomerCount: len(ex),
			Postcodes:     ex,
		})
	}
	return out
}

// MinimumDays estimates the working days needed to visit every customer of
// region, plus one day of slack. The tour is approximated as the nearest
// depot leg out and back plus the average intra-region leg for each hop.
func (r *Result) MinimumDays(region int) int {
	pcs := r.Members(region)
	if r.times == nil {
		return max(1, int(math.Ceil(float64(len(pcs))/5.0)))
	}
	var rows []int
	for _, pc := range pcs {
		if i, ok := r.times.Index(pc); ok {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return 1
	}
	n := float64(len(rows))
	serviceMin := r.params.ServiceHours * 60 * n

	depotLeg := math.Inf(1)
	if d, ok := r.times.Index(r.Depot.Postcode); ok {
		for _, i := range rows {
			if v := r.times.At(d, i); v < depotLeg {
				depotLeg = v
			}
		}
	}
	if math.IsInf(depotLeg, 1) {
		return int(math.Ceil(serviceMin/60/r.params.WorkHours)) + 1
	}

	tour := depotLeg
	if len(rows) > 1 {
		var sum float64
		var count int
		for _, i := range rows {
			for _, j := range rows {
				if i == j {
					continue
				}
				if v := r.times.At(i, j); !math.IsInf(v, 0) {
					sum += v
					count++
				}
			}
		}
		if count > 0 {
			tour += sum / float64(count) * (n - 1)
		} else {
			tour += depotLeg * n
		}
	}
	tour += depotLeg
	hours := (tour + serviceMin) / 60
	return int(math.Ceil(hours/r.params.WorkHours)) + 1
}
