package model

import "math"

// Route is a driving leg between two postcodes, one row of distances.csv.
// Legs are undirected; lookups must try both orientations.
type Route struct {
	Origin         string
	Destination    string
	DrivingMinutes float64
	DistanceKm     float64
}

// PairKey returns an orientation-independent key for two postcodes.
func PairKey(a, b string) [2]string {
	a, b = NormalizePostcode(a), NormalizePostcode(b)
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
