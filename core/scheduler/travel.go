package scheduler

import (
	"strings"

	"github.com/kilianp07/fieldroute/core/model"
)

// Travel resolves driving minutes between locations, accepting either
// postcodes or client names.
type Travel struct {
	legs     map[[2]string]float64
	known    map[string]bool
	byName   map[string]string
	fallback int
}

// NewTravel indexes routes and the location labels used to resolve names.
// A fallback of zero selects 30 minutes.
func NewTravel(routes []model.Route, locations []model.Location, fallback int) *Travel {
	if fallback <= 0 {
		fallback = 30
	}
	t := &Travel{known: map[string]bool{}, byName: map[string]string{}, fallback: fallback}
	if routes != nil {
		t.legs = make(map[[2]string]float64, len(routes))
		for _, r := range routes {
			t.legs[model.PairKey(r.Origin, r.Destination)] = r.DrivingMinutes
		}
	}
	for _, l := range locations {
		pc := model.NormalizePostcode(l.Postcode)
		t.known[pc] = true
		if n := strings.ToUpper(strings.TrimSpace(l.ClientName)); n != "" {
			if _, dup := t.byName[n]; !dup {
				t.byName[n] = pc
			}
		}
	}
	return t
}

// Resolve maps a postcode or client name to a postcode. Unknown labels are
// returned normalised.
func (t *Travel) Resolve(label string) string {
	s := strings.ToUpper(strings.TrimSpace(label))
	if t.known[s] {
		return s
	}
	if pc, ok := t.byName[s]; ok {
		return pc
	}
	return s
}

// Minutes returns whole driving minutes from a to b. The same place costs
// nothing, known legs cost at least one minute, and missing or zero legs
// cost the fallback.
func (t *Travel) Minutes(a, b string) int {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return t.fallback
	}
	a, b = t.Resolve(a), t.Resolve(b)
	if a == b {
		return 0
	}
	v, ok := t.legs[model.PairKey(a, b)]
	if !ok || v <= 0 {
		return t.fallback
	}
	return max(int(v), 1)
}

// Cost adapts Minutes to a float cost function.
func (t *Travel) Cost(a, b string) float64 { return float64(t.Minutes(a, b)) }
