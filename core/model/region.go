package model

import (
	"fmt"
	"strings"
)

const (
	// RegionDepot marks the home base in clustered_regions.csv.
	RegionDepot = 0
	// RegionExcluded marks customers left out of every region.
	RegionExcluded = -1
)

// Assignment is one row of clustered_regions.csv.
type Assignment struct {
	Postcode   string
	ClientName string
	Coordinates
	Region int
}

// RegionSummary is one row of region_summary.csv. The excluded bucket is
// written with the literal region label "Excluded".
type RegionSummary struct {
	Region        int
	Excluded      bool
	CustomerCount int
	Postcodes     []string
	MinimumDays   int
}

// Label returns the value of the region column.
func (s RegionSummary) Label() string {
	if s.Excluded {
		return "Excluded"
	}
	return fmt.Sprintf("%d", s.Region)
}

// RegionStyle is one row of region_names.csv.
type RegionStyle struct {
	Region    int
	Name      string
	ColorCode int
}

// DefaultRegionName is used when region_names.csv has no entry.
func DefaultRegionName(region int) string {
	return fmt.Sprintf("Region %d", region)
}

// PaletteSize is the number of usable Outlook category colours.
const PaletteSize = 24

type paletteEntry struct {
	name string
	hex  string
	css  string // nearest CSS3 colour keyword
}

var palette = [PaletteSize + 1]paletteEntry{
	{"None", "#32CD32", "limegreen"},
	{"Red", "#DC143C", "crimson"},
	{"Orange", "#FF8C00", "darkorange"},
	{"Peach", "#FFB6C1", "lightpink"},
	{"Yellow", "#FFD700", "gold"},
	{"Green", "#32CD32", "limegreen"},
	{"Teal", "#008B8B", "darkcyan"},
	{"Olive", "#808000", "olive"},
	{"Blue", "#4169E1", "royalblue"},
	{"Purple", "#9370DB", "mediumpurple"},
	{"Maroon", "#800000", "maroon"},
	{"Steel", "#4682B4", "steelblue"},
	{"DarkSteel", "#36454F", "darkslategray"},
	{"Gray", "#808080", "gray"},
	{"DarkGray", "#696969", "dimgray"},
	{"Black", "#000000", "black"},
	{"DarkRed", "#8B0000", "darkred"},
	{"DarkOrange", "#FF4500", "orangered"},
	{"DarkPeach", "#CD5C5C", "indianred"},
	{"DarkYellow", "#DAA520", "goldenrod"},
	{"DarkGreen", "#006400", "darkgreen"},
	{"DarkTeal", "#008080", "teal"},
	{"DarkOlive", "#556B2F", "darkolivegreen"},
	{"DarkBlue", "#00008B", "darkblue"},
	{"DarkPurple", "#483D8B", "darkslateblue"},
}

// ColorName returns the Outlook category name for code, "Red" when unknown.
func ColorName(code int) string {
	if code < 0 || code > PaletteSize {
		return "Red"
	}
	return palette[code].name
}

// ColorHex returns the display colour for code, green when unknown.
func ColorHex(code int) string {
	if code < 0 || code > PaletteSize {
		return "#32CD32"
	}
	return palette[code].hex
}

// ColorCSS returns the CSS3 colour keyword closest to code, the form
// calendar clients accept for event colours. Unknown codes give limegreen.
func ColorCSS(code int) string {
	if code < 0 || code > PaletteSize {
		return "limegreen"
	}
	return palette[code].css
}

// ColorCodeByName resolves a palette name case-insensitively.
func ColorCodeByName(name string) (int, bool) {
	for i, e := range palette {
		if strings.EqualFold(e.name, strings.TrimSpace(name)) {
			return i, true
		}
	}
	return 0, false
}

// AutoColor returns the colour assigned to the i-th region (1-based) when
// the user has not chosen one.
func AutoColor(region int) int {
	if region < 1 {
		return 1
	}
	return (region-1)%PaletteSize + 1
}
