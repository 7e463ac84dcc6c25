// Package geo holds the planar and spherical geometry used to shape regions.
//
// Clustering works directly on (latitude, longitude) pairs treated as a plane,
// which is adequate at the scale of a single service area. Haversine is used
// where real kilometres are needed.
package geo

import (
	"math"

	"github.com/kilianp07/fieldroute/core/model"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

// Point is a planar point; X holds latitude and Y longitude.
type Point struct {
	X, Y float64
}

// FromCoordinates converts a WGS84 coordinate to a planar point.
func FromCoordinates(c model.Coordinates) Point {
	return Point{X: c.Latitude, Y: c.Longitude}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale multiplies both components by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Norm returns the Euclidean length of p.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 { return p.Sub(q).Norm() }

// Centroid returns the arithmetic mean of pts. It returns the zero point for
// an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(a, b model.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
