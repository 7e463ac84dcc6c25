package cluster

import (
	"math"

	"github.com/kilianp07/fieldroute/core/geo"
)

// Ward groups pts into k clusters by agglomerative clustering with Ward
// linkage, merging at each step the pair whose union least increases the
// within-cluster variance. Labels are numbered 0..k-1 in order of the lowest
// point index in each cluster so the result is reproducible.
func Ward(pts []geo.Point, k int) []int {
	n := len(pts)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}
	if k >= n {
		for i := range labels {
			labels[i] = i
		}
		return labels
	}
	if k < 1 {
		k = 1
	}

	// squared euclidean distances, updated with the Lance-Williams formula
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			dd := geo.Distance(pts[i], pts[j])
			d[i][j] = dd * dd
		}
	}
	size := make([]float64, n)
	active := make([]bool, n)
	owner := make([]int, n) // point -> representative cluster
	for i := 0; i < n; i++ {
		size[i] = 1
		active[i] = true
		owner[i] = i
	}

	for clusters := n; clusters > k; clusters-- {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < best {
					bi, bj, best = i, j, d[i][j]
				}
			}
		}
		ni, nj := size[bi], size[bj]
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			nm := size[m]
			v := ((ni+nm)*d[bi][m] + (nj+nm)*d[bj][m] - nm*best) / (ni + nj + nm)
			d[bi][m], d[m][bi] = v, v
		}
		size[bi] = ni + nj
		active[bj] = false
		for p := range owner {
			if owner[p] == bj {
				owner[p] = bi
			}
		}
	}

	next := 0
	relabel := make(map[int]int, k)
	for p := 0; p < n; p++ {
		l, ok := relabel[owner[p]]
		if !ok {
			l = next
			relabel[owner[p]] = l
			next++
		}
		labels[p] = l
	}
	return labels
}
