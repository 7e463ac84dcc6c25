// Package calendar assigns working days to regions.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/fieldroute/core/model"
)

var (
	// ErrNoAssignments is returned when saving or exporting an empty calendar.
	ErrNoAssignments = errors.New("no region assignments")
	// ErrUnknownRegion is returned when assigning a date to a region that
	// does not exist.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrUnsaved is returned when exporting a calendar with unsaved changes.
	ErrUnsaved = errors.New("schedule must be saved before export")
	// ErrBelowMinimum is returned by Schedule when regions are short of
	// their minimum days and force is not set.
	ErrBelowMinimum = errors.New("regions below minimum days")
)

// Region is a service region as seen by the calendar.
type Region struct {
	ID          int
	Name        string
	ColorCode   int
	Postcodes   []string
	ClientNames map[string]string
	MinimumDays int
}

// BuildRegions derives the calendar regions from clustering artifacts.
// Customers in regions <= 0 are ignored. Missing names default to
// "Region N", missing colours to 1 and missing minimum days to 0.
func BuildRegions(rows []model.Assignment, styles []model.RegionStyle, summary []model.RegionSummary) []Region {
	byID := map[int]*Region{}
	for _, a := range rows {
		if a.Region <= 0 {
			continue
		}
		r, ok := byID[a.Region]
		if !ok {
			r = &Region{ID: a.Region, Name: model.DefaultRegionName(a.Region), ColorCode: 1, ClientNames: map[string]string{}}
			byID[a.Region] = r
		}
		pc := model.NormalizePostcode(a.Postcode)
		r.Postcodes = append(r.Postcodes, pc)
		if n := strings.TrimSpace(a.ClientName); n != "" {
			r.ClientNames[pc] = n
		}
	}
	for _, s := range styles {
		if r, ok := byID[s.Region]; ok {
			if strings.TrimSpace(s.Name) != "" {
				r.Name = s.Name
			}
			if s.ColorCode > 0 {
				r.ColorCode = s.ColorCode
			}
		}
	}
	for _, s := range summary {
		if s.Excluded {
			continue
		}
		if r, ok := byID[s.Region]; ok {
			r.MinimumDays = s.MinimumDays
		}
	}
	out := make([]Region, 0, len(byID))
	for _, r := range byID {
		sort.Strings(r.Postcodes)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Action describes what a Toggle did.
type Action int

const (
	Assigned Action = iota
	Unassigned
	Reassigned
)

func (a Action) String() string {
	switch a {
	case Assigned:
		return "assigned"
	case Unassigned:
		return "unassigned"
	case Reassigned:
		return "reassigned"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Shortfall reports a region with fewer days than its minimum.
type Shortfall struct {
	Region   int
	Name     string
	Assigned int
	Minimum  int
}

// Organizer holds the date→region calendar of a project.
type Organizer struct {
	regions map[int]Region
	ids     []int
	assign  map[time.Time]int
	saved   bool
}

// New returns an Organizer over regions, preloaded with a saved schedule.
// Saved rows naming unknown regions are kept so that a later save does not
// lose them.
func New(regions []Region, saved []model.DayAssignment) *Organizer {
	o := &Organizer{regions: map[int]Region{}, assign: map[time.Time]int{}, saved: true}
	for _, r := range regions {
		o.regions[r.ID] = r
		o.ids = append(o.ids, r.ID)
	}
	sort.Ints(o.ids)
	for _, d := range saved {
		o.assign[model.Day(d.Date)] = d.Region
	}
	return o
}

// Regions returns the regions in id order.
func (o *Organizer) Regions() []Region {
	out := make([]Region, 0, len(o.ids))
	for _, id := range o.ids {
		out = append(out, o.regions[id])
	}
	return out
}

// Region returns the region with id.
func (o *Organizer) Region(id int) (Region, bool) {
	r, ok := o.regions[id]
	return r, ok
}

// Toggle assigns date to region. Clicking a date already held by region
// frees it and a date held by another region is reassigned. The previous
// region is returned for Reassigned.
func (o *Organizer) Toggle(date time.Time, region int) (Action, int, error) {
	if _, ok := o.regions[region]; !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownRegion, region)
	}
	d := model.Day(date)
	o.saved = false
	prev, ok := o.assign[d]
	switch {
	case !ok:
		o.assign[d] = region
		return Assigned, 0, nil
	case prev == region:
		delete(o.assign, d)
		return Unassigned, prev, nil
	default:
		o.assign[d] = region
		return Reassigned, prev, nil
	}
}

// RegionOn returns the region assigned to date.
func (o *Organizer) RegionOn(date time.Time) (int, bool) {
	r, ok := o.assign[model.Day(date)]
	return r, ok
}

// Clear removes every assignment and returns how many were dropped.
func (o *Organizer) Clear() int {
	n := len(o.assign)
	if n > 0 {
		o.assign = map[time.Time]int{}
		o.saved = false
	}
	return n
}

// Len returns the number of assigned dates.
func (o *Organizer) Len() int { return len(o.assign) }

// DaysFor returns the dates assigned to region in ascending order.
func (o *Organizer) DaysFor(region int) []time.Time {
	var days []time.Time
	for d, r := range o.assign {
		if r == region {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Warnings lists regions with a positive minimum that have fewer days.
func (o *Organizer) Warnings() []Shortfall {
	counts := map[int]int{}
	for _, r := range o.assign {
		counts[r]++
	}
	var out []Shortfall
	for _, id := range o.ids {
		r := o.regions[id]
		if r.MinimumDays > 0 && counts[id] < r.MinimumDays {
			out = append(out, Shortfall{Region: id, Name: r.Name, Assigned: counts[id], Minimum: r.MinimumDays})
		}
	}
	return out
}

// Schedule returns the rows of region_schedule.csv sorted by date. Shortfalls
// are returned alongside ErrBelowMinimum unless force is set.
func (o *Organizer) Schedule(force bool) ([]model.DayAssignment, []Shortfall, error) {
	if len(o.assign) == 0 {
		return nil, nil, ErrNoAssignments
	}
	warn := o.Warnings()
	if len(warn) > 0 && !force {
		return nil, warn, ErrBelowMinimum
	}
	rows := make([]model.DayAssignment, 0, len(o.assign))
	for d, r := range o.assign {
		rows = append(rows, model.DayAssignment{Date: d, Region: r})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, warn, nil
}

// MarkSaved records that the current assignments were persisted.
func (o *Organizer) MarkSaved() { o.saved = true }

// Saved reports whether there are no unsaved changes.
func (o *Organizer) Saved() bool { return o.saved }
