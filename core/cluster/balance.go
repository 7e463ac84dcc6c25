// Package cluster splits customers into service regions and estimates how
// many working days each region needs.
package cluster

import (
	"math"

	"github.com/kilianp07/fieldroute/core/geo"
	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/matrix"
)

const (
	maxProximityPasses   = 100
	maxOverlapPasses     = 100
	maxCompactnessPasses = 50
)

// Balancer shapes Ward clusters into compact, non-overlapping regions of at
// least MinSize customers.
type Balancer struct {
	params Params
	log    logger.Logger
}

// NewBalancer returns a Balancer. Params must already carry defaults.
func NewBalancer(p Params, log logger.Logger) *Balancer {
	return &Balancer{params: p, log: log}
}

// Outcome is the labelling produced by Balance together with per-region
// metrics. Labels are 0-based region indices aligned with the input points.
type Outcome struct {
	Labels  []int
	Metrics []float64
	Stats   matrix.Summary
	// OverlapsRemain is set when overlap repair gave up.
	OverlapsRemain bool
}

// Balance clusters pts (customer coordinates, depot excluded) into k
// regions. postcodes label each point for driving-time lookups in times,
// which may be nil.
func (b *Balancer) Balance(pts []geo.Point, postcodes []string, times *matrix.DrivingTimes, k int) Outcome {
	labels := Ward(pts, k)
	if len(pts) < 2 {
		return b.finish(postcodes, times, k, labels, false)
	}
	dist := pairwise(pts)

	var all []float64
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			all = append(all, dist[i][j])
		}
	}
	threshold := matrix.Percentile(all, b.params.ProximityPercentile)
	b.log.Debugf("proximity threshold %.4f", threshold)

	passes := b.enforceProximity(labels, dist, threshold, k)
	b.log.Debugf("proximity constraints settled after %d passes", passes)

	b.growSmall(pts, labels, k)

	remain := b.repairOverlaps(pts, labels, k)
	if remain {
		b.log.Warnf("some region overlaps remain after %d passes", maxOverlapPasses)
	}

	passes = b.compact(pts, labels, k)
	b.log.Debugf("compactness settled after %d passes", passes)

	return b.finish(postcodes, times, k, labels, remain)
}

func (b *Balancer) finish(postcodes []string, times *matrix.DrivingTimes, k int, labels []int, remain bool) Outcome {
	m := Metrics(labels, postcodes, times, k)
	out := Outcome{Labels: labels, Metrics: m, Stats: matrix.Describe(m), OverlapsRemain: remain}
	b.log.Debugw("clustering complete", map[string]any{
		"regions": k,
		"sizes":   sizes(labels, k),
		"total":   out.Stats.Total,
	})
	return out
}

func pairwise(pts []geo.Point) [][]float64 {
	d := make([][]float64, len(pts))
	for i := range pts {
		d[i] = make([]float64, len(pts))
		for j := range pts {
			d[i][j] = geo.Distance(pts[i], pts[j])
		}
	}
	return d
}

func sizes(labels []int, k int) []int {
	s := make([]int, k)
	for _, l := range labels {
		if l >= 0 && l < k {
			s[l]++
		}
	}
	return s
}

func members(labels []int, c int) []int {
	var idx []int
	for i, l := range labels {
		if l == c {
			idx = append(idx, i)
		}
	}
	return idx
}

func pointsOf(pts []geo.Point, idx []int) []geo.Point {
	out := make([]geo.Point, len(idx))
	for k, i := range idx {
		out[k] = pts[i]
	}
	return out
}

// enforceProximity pulls customers that are closer than threshold into the
// same region, moving the point whose region can best afford to lose it.
func (b *Balancer) enforceProximity(labels []int, dist [][]float64, threshold float64, k int) int {
	minSize := b.params.MinSize
	pass := 0
	for pass < maxProximityPasses {
		pass++
		fixed := 0
		for i := range labels {
			for j := i + 1; j < len(labels); j++ {
				if labels[i] == labels[j] || dist[i][j] >= threshold {
					continue
				}
				s := sizes(labels, k)
				si, sj := s[labels[i]], s[labels[j]]
				switch {
				case si > sj && si > minSize:
					labels[i] = labels[j]
					fixed++
				case sj >= minSize:
					labels[j] = labels[i]
					fixed++
				}
			}
		}
		if fixed == 0 {
			break
		}
	}
	return pass
}

// growSmall tops up regions below MinSize with the member of the largest
// region nearest to their centroid. An empty region is seeded from the
// largest region's first member.
func (b *Balancer) growSmall(pts []geo.Point, labels []int, k int) {
	minSize := b.params.MinSize
	for c := 0; c < k; c++ {
		for {
			s := sizes(labels, k)
			if s[c] >= minSize {
				break
			}
			largest := 0
			for i := range s {
				if s[i] > s[largest] {
					largest = i
				}
			}
			if s[largest] <= minSize {
				break
			}
			donors := members(labels, largest)
			var target geo.Point
			if own := members(labels, c); len(own) > 0 {
				target = geo.Centroid(pointsOf(pts, own))
			} else {
				target = pts[donors[0]]
			}
			best, bestD := donors[0], math.Inf(1)
			for _, i := range donors {
				if d := geo.Distance(pts[i], target); d < bestD {
					best, bestD = i, d
				}
			}
			labels[best] = c
		}
	}
}

func (b *Balancer) anyOverlap(pts []geo.Point, labels []int, k int) bool {
	shapes := make([]geo.Polygon, k)
	for c := 0; c < k; c++ {
		shapes[c] = geo.ClusterShape(pointsOf(pts, members(labels, c)))
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if geo.Overlaps(shapes[i], shapes[j]) {
				return true
			}
		}
	}
	return false
}

// repairOverlaps moves hull vertices between regions whose hulls overlap.
// It reports whether overlaps were still present when it stopped.
func (b *Balancer) repairOverlaps(pts []geo.Point, labels []int, k int) bool {
	minSize := b.params.MinSize
	for pass := 0; pass < maxOverlapPasses; pass++ {
		if !b.anyOverlap(pts, labels, k) {
			return false
		}
		moved := false
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				mi, mj := members(labels, i), members(labels, j)
				if len(mi) <= minSize || len(mj) <= minSize {
					continue
				}
				pi, pj := pointsOf(pts, mi), pointsOf(pts, mj)
				hi := geo.ConvexHull(pi)
				if len(hi) < 3 || len(geo.ConvexHull(pj)) < 3 {
					continue
				}
				if !geo.Overlaps(geo.ClusterShape(pi), geo.ClusterShape(pj)) {
					continue
				}
				cj := geo.Centroid(pj)
				best, bestD := -1, math.Inf(1)
				for _, h := range hi {
					if d := geo.Distance(pi[h], cj); d < bestD {
						best, bestD = mi[h], d
					}
				}
				labels[best] = j
				moved = true
				break
			}
		}
		if !moved {
			return true
		}
	}
	return b.anyOverlap(pts, labels, k)
}

// compact moves each region's farthest member to another region whose
// centroid is clearly closer.
func (b *Balancer) compact(pts []geo.Point, labels []int, k int) int {
	minSize := b.params.MinSize
	factor := b.params.CompactnessFactor
	pass := 0
	for pass < maxCompactnessPasses {
		pass++
		improved := false
		for c := 0; c < k; c++ {
			own := members(labels, c)
			if len(own) <= minSize {
				continue
			}
			centroid := geo.Centroid(pointsOf(pts, own))
			outlier, far := -1, -1.0
			for _, i := range own {
				if d := geo.Distance(pts[i], centroid); d > far {
					outlier, far = i, d
				}
			}
			best, bestD := -1, math.Inf(1)
			for o := 0; o < k; o++ {
				if o == c {
					continue
				}
				other := members(labels, o)
				if len(other) == 0 {
					continue
				}
				d := geo.Distance(pts[outlier], geo.Centroid(pointsOf(pts, other)))
				if d < bestD && d < far*factor {
					best, bestD = o, d
				}
			}
			if best >= 0 {
				labels[outlier] = best
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return pass
}

// Metrics returns, per region, the sum of driving minutes over every pair of
// members. Legs with no known driving time are skipped. A nil matrix yields
// zeros.
func Metrics(labels []int, postcodes []string, times *matrix.DrivingTimes, k int) []float64 {
	out := make([]float64, k)
	if times == nil {
		return out
	}
	for c := 0; c < k; c++ {
		idx := members(labels, c)
		rows := make([]int, 0, len(idx))
		for _, i := range idx {
			if r, ok := times.Index(postcodes[i]); ok {
				rows = append(rows, r)
			}
		}
		for a := 0; a < len(rows); a++ {
			for bb := a + 1; bb < len(rows); bb++ {
				if v := times.At(rows[a], rows[bb]); !math.IsInf(v, 0) {
					out[c] += v
				}
			}
		}
	}
	return out
}
