// Package route orders the stops of a working day into a closed tour from
// the home base and measures how far a booked order is from that tour.
package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/katalvlaran/lvlath/tsp"
)

// ErrIncomplete is returned when some leg of every candidate tour is unknown.
var ErrIncomplete = errors.New("route: missing driving time between stops")

// DefaultEfficiencyThreshold is the largest acceptable ratio between a
// booked day and its optimised tour.
const DefaultEfficiencyThreshold = 1.3

// CostFunc returns the driving minutes from a to b. Unknown legs return +Inf.
type CostFunc func(a, b string) float64

// Tour is a closed route starting and ending at Home.
type Tour struct {
	Home  string
	Stops []string
	Cost  float64
}

// legs is the distance matrix of home (index 0) followed by stops.
type legs struct {
	places    []string
	dist      *matrix.Dense
	symmetric bool
}

func buildLegs(home string, stops []string, cost CostFunc) (*legs, error) {
	places := append([]string{home}, stops...)
	n := len(places)
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, fmt.Errorf("route: distance matrix: %w", err)
	}
	l := &legs{places: places, dist: d, symmetric: true}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := cost(places[i], places[j])
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, ErrIncomplete
			}
			if err := d.Set(i, j, v); err != nil {
				return nil, fmt.Errorf("route: distance matrix: %w", err)
			}
		}
	}
	for i := 0; i < n && l.symmetric; i++ {
		for j := i + 1; j < n; j++ {
			a, _ := d.At(i, j)
			b, _ := d.At(j, i)
			if a != b {
				l.symmetric = false
				break
			}
		}
	}
	return l, nil
}

// closed returns the tour 0→1→…→n-1→0 that visits stops in booked order.
func (l *legs) closed() []int {
	tour := make([]int, 0, len(l.places)+1)
	for i := range l.places {
		tour = append(tour, i)
	}
	return append(tour, 0)
}

// solve finds the shortest closed tour: exact Held-Karp for small days,
// Christofides or 2-opt beyond that.
func (l *legs) solve() (*tsp.Result, error) {
	opts := tsp.DefaultOptions()
	opts.Algo = tsp.Auto
	opts.Symmetric = l.symmetric
	res, err := tsp.SolveMatrix(l.dist, nil, opts)
	if errors.Is(err, tsp.ErrIncompleteGraph) {
		return nil, ErrIncomplete
	}
	if err != nil {
		return nil, fmt.Errorf("route: solve: %w", err)
	}
	return res, nil
}

// stops maps a closed index tour to postcodes, oriented so the first drive
// out is no longer than the last drive home.
func (l *legs) stops(tour []int) []string {
	inner := tour[1 : len(tour)-1]
	if len(inner) > 1 && l.symmetric {
		first, _ := l.dist.At(0, inner[0])
		last, _ := l.dist.At(inner[len(inner)-1], 0)
		if first > last {
			rev := make([]int, len(inner))
			for i, v := range inner {
				rev[len(inner)-1-i] = v
			}
			inner = rev
		}
	}
	out := make([]string, len(inner))
	for i, v := range inner {
		out[i] = l.places[v]
	}
	return out
}

// Plan returns the shortest closed tour from home through every stop.
func Plan(home string, stops []string, cost CostFunc) (Tour, error) {
	if len(stops) == 0 {
		return Tour{Home: home}, nil
	}
	l, err := buildLegs(home, stops, cost)
	if err != nil {
		return Tour{Home: home, Stops: append([]string(nil), stops...), Cost: math.Inf(1)}, err
	}
	res, err := l.solve()
	if err != nil {
		return Tour{Home: home, Stops: append([]string(nil), stops...), Cost: math.Inf(1)}, err
	}
	return Tour{Home: home, Stops: l.stops(res.Tour), Cost: res.Cost}, nil
}

// Efficiency compares a booked visiting order with its optimised tour.
type Efficiency struct {
	Actual  float64
	Optimal float64
	Ratio   float64
	// Inefficient is set when Ratio exceeds the threshold.
	Inefficient bool
	Suggested   []string
}

// Assess returns how much longer the booked order is than the planned tour.
// A threshold of zero selects DefaultEfficiencyThreshold.
func Assess(home string, booked []string, cost CostFunc, threshold float64) (Efficiency, error) {
	if threshold <= 0 {
		threshold = DefaultEfficiencyThreshold
	}
	if len(booked) == 0 {
		return Efficiency{Ratio: 1}, nil
	}
	l, err := buildLegs(home, booked, cost)
	if err != nil {
		return Efficiency{Actual: math.Inf(1)}, err
	}
	actual, err := tsp.TourCost(l.dist, l.closed())
	if err != nil {
		return Efficiency{}, fmt.Errorf("route: booked cost: %w", err)
	}
	res, err := l.solve()
	if err != nil {
		return Efficiency{Actual: actual}, err
	}
	opt := math.Min(res.Cost, actual)
	e := Efficiency{Actual: actual, Optimal: opt, Ratio: 1, Suggested: l.stops(res.Tour)}
	if opt > 0 {
		e.Ratio = actual / opt
	}
	e.Inefficient = e.Ratio > threshold
	return e, nil
}
