package model

import (
	"strings"
	"unicode"
)

// Location is a customer row of locations.csv.
type Location struct {
	Postcode   string
	ClientName string // optional
}

// Label returns the client name when showNames is set and one is known,
// otherwise the postcode.
func (l Location) Label(showNames bool) string {
	if showNames && strings.TrimSpace(l.ClientName) != "" {
		return l.ClientName
	}
	return l.Postcode
}

// NormalizePostcode trims surrounding whitespace and upper-cases the code.
// Postcodes compare case-insensitively everywhere in the pipeline.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CompactPostcode strips every space, as required by geocoding endpoints.
func CompactPostcode(s string) string {
	return strings.ReplaceAll(NormalizePostcode(s), " ", "")
}

// LooksLikePostcode reports whether a header cell is really data. A value
// containing a digit or no longer than ten characters is treated as a code.
func LooksLikePostcode(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.EqualFold(s, "postcode") {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return len(s) <= 10
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoLocation is one row of distance_matrix.csv.
type GeoLocation struct {
	Postcode string
	Coordinates
}
