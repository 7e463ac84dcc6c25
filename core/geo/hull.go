package geo

import (
	"math"
	"sort"
)

const eps = 1e-12

// Polygon is a convex polygon in counter-clockwise order.
type Polygon []Point

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the indices into pts of the hull vertices in
// counter-clockwise order (Andrew's monotone chain). Collinear points are
// dropped. Fewer than three distinct points yield the distinct points.
func ConvexHull(pts []Point) []int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		pa, pb := pts[idx[a]], pts[idx[b]]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return pa.Y < pb.Y
	})
	// drop duplicates
	uniq := idx[:0]
	for _, i := range idx {
		if len(uniq) > 0 && pts[uniq[len(uniq)-1]] == pts[i] {
			continue
		}
		uniq = append(uniq, i)
	}
	if len(uniq) < 3 {
		return append([]int(nil), uniq...)
	}
	hull := make([]int, 0, 2*len(uniq))
	for _, i := range uniq {
		for len(hull) >= 2 && cross(pts[hull[len(hull)-2]], pts[hull[len(hull)-1]], pts[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	lower := len(hull) + 1
	for k := len(uniq) - 2; k >= 0; k-- {
		i := uniq[k]
		for len(hull) >= lower && cross(pts[hull[len(hull)-2]], pts[hull[len(hull)-1]], pts[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	return hull[:len(hull)-1]
}

// ClusterShape returns the polygon that stands for a group of points when
// testing regions for overlap. Single points become an octagon of radius 1
// and pairs a rectangle of half-width 0.5 around the segment.
func ClusterShape(pts []Point) Polygon {
	switch len(pts) {
	case 0:
		return nil
	case 1:
		p := pts[0]
		poly := make(Polygon, 8)
		for k := range poly {
			theta := 2 * math.Pi * float64(k) / 8
			poly[k] = Point{p.X + math.Cos(theta), p.Y + math.Sin(theta)}
		}
		return poly
	case 2:
		p1, p2 := pts[0], pts[1]
		v := p2.Sub(p1)
		n := v.Norm()
		if n == 0 {
			return ClusterShape(pts[:1])
		}
		perp := Point{-v.Y, v.X}.Scale(0.5 / n)
		return orientCCW(Polygon{p1.Add(perp), p2.Add(perp), p2.Sub(perp), p1.Sub(perp)})
	}
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return ClusterShape([]Point{pts[hull[0]], pts[hull[len(hull)-1]]})
	}
	poly := make(Polygon, len(hull))
	for k, i := range hull {
		poly[k] = pts[i]
	}
	return poly
}

func orientCCW(p Polygon) Polygon {
	var area float64
	for i := range p {
		j := (i + 1) % len(p)
		area += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	if area < 0 {
		for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
	}
	return p
}

// Overlaps reports whether the interiors of two convex polygons intersect.
// Polygons that only share boundary points do not overlap.
func Overlaps(a, b Polygon) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	return !separated(a, b) && !separated(b, a)
}

// separated checks the edge normals of a for an axis on which the
// projections of a and b are disjoint or merely touch.
func separated(a, b Polygon) bool {
	for i := range a {
		j := (i + 1) % len(a)
		axis := Point{-(a[j].Y - a[i].Y), a[j].X - a[i].X}
		minA, maxA := project(a, axis)
		minB, maxB := project(b, axis)
		tol := eps * math.Max(1, axis.Norm())
		if maxA <= minB+tol || maxB <= minA+tol {
			return true
		}
	}
	return false
}

func project(p Polygon, axis Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p {
		d := v.X*axis.X + v.Y*axis.Y
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
