// Package matrix builds the symmetric driving-time matrix shared by the
// clustering and tour estimators.
package matrix

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fieldroute/core/model"
)

// ErrUnknownPostcode is returned when a postcode is not part of the matrix.
var ErrUnknownPostcode = errors.New("postcode not in matrix")

// DrivingTimes is an n×n matrix of driving minutes indexed by postcode.
// Missing legs hold +Inf and the diagonal is zero.
type DrivingTimes struct {
	postcodes []string
	index     map[string]int
	m         *mat.Dense
}

// Build creates the matrix for postcodes (normalised and sorted) from routes.
// Routes naming unknown postcodes are ignored.
func Build(postcodes []string, routes []model.Route) *DrivingTimes {
	seen := make(map[string]struct{}, len(postcodes))
	pcs := make([]string, 0, len(postcodes))
	for _, p := range postcodes {
		p = model.NormalizePostcode(p)
		if _, ok := seen[p]; ok || p == "" {
			continue
		}
		seen[p] = struct{}{}
		pcs = append(pcs, p)
	}
	sort.Strings(pcs)
	n := len(pcs)
	index := make(map[string]int, n)
	for i, p := range pcs {
		index[p] = i
	}
	d := &DrivingTimes{postcodes: pcs, index: index}
	if n == 0 {
		return d
	}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = math.Inf(1)
	}
	d.m = mat.NewDense(n, n, data)
	for i := 0; i < n; i++ {
		d.m.Set(i, i, 0)
	}
	for _, r := range routes {
		i, ok1 := index[model.NormalizePostcode(r.Origin)]
		j, ok2 := index[model.NormalizePostcode(r.Destination)]
		if !ok1 || !ok2 || i == j {
			continue
		}
		d.m.Set(i, j, r.DrivingMinutes)
		d.m.Set(j, i, r.DrivingMinutes)
	}
	return d
}

// Len returns the matrix dimension.
func (d *DrivingTimes) Len() int { return len(d.postcodes) }

// Postcodes returns the sorted row labels.
func (d *DrivingTimes) Postcodes() []string { return append([]string(nil), d.postcodes...) }

// Index returns the row of postcode.
func (d *DrivingTimes) Index(postcode string) (int, bool) {
	i, ok := d.index[model.NormalizePostcode(postcode)]
	return i, ok
}

// At returns the minutes between rows i and j.
func (d *DrivingTimes) At(i, j int) float64 { return d.m.At(i, j) }

// Minutes returns the driving minutes between two postcodes.
func (d *DrivingTimes) Minutes(a, b string) (float64, error) {
	i, ok := d.Index(a)
	if !ok {
		return 0, ErrUnknownPostcode
	}
	j, ok := d.Index(b)
	if !ok {
		return 0, ErrUnknownPostcode
	}
	return d.m.At(i, j), nil
}

// Dense exposes the underlying matrix.
func (d *DrivingTimes) Dense() mat.Matrix { return d.m }

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between closest ranks. It returns NaN for no values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}

// Summary holds descriptive statistics of per-region metrics.
type Summary struct {
	Mean         float64
	StdDev       float64
	BalanceRatio float64
	Total        float64
}

// Describe returns the mean, population standard deviation, max/min ratio
// and total of values. The ratio is +Inf when the minimum is zero.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	lo, hi, total := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		total += v
	}
	ratio := math.Inf(1)
	if lo > 0 {
		ratio = hi / lo
	} else if hi == 0 {
		ratio = 1
	}
	return Summary{Mean: mean, StdDev: std, BalanceRatio: ratio, Total: total}
}
