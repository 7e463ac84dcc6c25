package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/route"
)

var (
	ErrDuplicateLocation = errors.New("location already has a confirmed appointment")
	ErrPendingExists     = errors.New("a pending appointment already exists")
	ErrNoPending         = errors.New("no pending appointment")
	ErrSlotTaken         = errors.New("time slot already booked")
	ErrInvalidSlot       = errors.New("time is not a bookable slot")
	ErrInvalidDuration   = errors.New("appointment duration out of range")
	ErrUnknownPostcode   = errors.New("postcode is not in any region")
	ErrNoAppointment     = errors.New("no appointment at that time")
	ErrNothingToClear    = errors.New("no appointments in region")
	ErrDateNotInRegion   = errors.New("date is not a working day of the region")
)

// Inputs are the project artifacts the scheduler works from.
type Inputs struct {
	// Assignments are the rows of clustered_regions.csv; region 0 is home.
	Assignments []model.Assignment
	Routes      []model.Route
	Schedule    []model.DayAssignment
	Confirmed   []model.Appointment
}

// Scheduler books appointments. It is not safe for concurrent use.
type Scheduler struct {
	cfg       SchedulerConfig
	travel    *Travel
	home      string
	regionOf  map[string]int
	members   map[int][]string
	locations map[string]model.Assignment
	days      map[int][]time.Time
	confirmed map[string]model.Appointment
	pending   *model.Appointment
	log       logger.Logger
}

// New builds a Scheduler. cfg must carry defaults.
func New(cfg SchedulerConfig, in Inputs, log logger.Logger) *Scheduler {
	s := &Scheduler{
		cfg:       cfg,
		regionOf:  map[string]int{},
		members:   map[int][]string{},
		locations: map[string]model.Assignment{},
		days:      map[int][]time.Time{},
		confirmed: map[string]model.Appointment{},
		log:       log,
	}
	locs := make([]model.Location, 0, len(in.Assignments))
	for _, a := range in.Assignments {
		pc := model.NormalizePostcode(a.Postcode)
		a.Postcode = pc
		s.locations[pc] = a
		locs = append(locs, model.Location{Postcode: pc, ClientName: a.ClientName})
		switch {
		case a.Region == model.RegionDepot && s.home == "":
			s.home = pc
		case a.Region > 0:
			s.regionOf[pc] = a.Region
			s.members[a.Region] = append(s.members[a.Region], pc)
		}
	}
	for r := range s.members {
		sort.Strings(s.members[r])
	}
	s.travel = NewTravel(in.Routes, locs, cfg.DefaultTravelMinutes)
	for _, d := range in.Schedule {
		s.days[d.Region] = append(s.days[d.Region], model.Day(d.Date))
	}
	for r := range s.days {
		sort.Slice(s.days[r], func(i, j int) bool { return s.days[r][i].Before(s.days[r][j]) })
	}
	for _, a := range in.Confirmed {
		a.Postcode = model.NormalizePostcode(a.Postcode)
		a.Date = model.Day(a.Date)
		if a.DurationMinutes <= 0 {
			a.DurationMinutes = cfg.DefaultDuration
		}
		s.confirmed[a.Postcode] = a
	}
	return s
}

// Config returns the scheduler configuration.
func (s *Scheduler) Config() SchedulerConfig { return s.cfg }

// Home returns the home-base postcode, empty when unknown.
func (s *Scheduler) Home() string { return s.home }

// Travel exposes the travel-time lookup.
func (s *Scheduler) Travel() *Travel { return s.travel }

// Location returns the clustered row of postcode.
func (s *Scheduler) Location(postcode string) (model.Assignment, bool) {
	a, ok := s.locations[s.travel.Resolve(postcode)]
	return a, ok
}

// Regions returns the region ids that have customers, ascending.
func (s *Scheduler) Regions() []int {
	ids := make([]int, 0, len(s.members))
	for r := range s.members {
		ids = append(ids, r)
	}
	sort.Ints(ids)
	return ids
}

// RegionPostcodes returns the customers of region in postcode order.
func (s *Scheduler) RegionPostcodes(region int) []string {
	return append([]string(nil), s.members[region]...)
}

// RegionDates returns the working days assigned to region.
func (s *Scheduler) RegionDates(region int) []time.Time {
	return append([]time.Time(nil), s.days[region]...)
}

// OptimalDays returns the fewest days that fit every customer of region at
// MaxPerDay visits a day.
func (s *Scheduler) OptimalDays(region int) int {
	n := len(s.members[region])
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / float64(s.cfg.MaxPerDay)))
}

// Slots returns the bookable start times of the working day.
func (s *Scheduler) Slots() []model.Clock {
	var out []model.Clock
	for m := s.cfg.StartHour * 60; m < s.cfg.EndHour*60; m += s.cfg.SlotMinutes {
		out = append(out, model.Clock(m))
	}
	return out
}

func (s *Scheduler) isSlot(c model.Clock) bool {
	m := int(c)
	return m >= s.cfg.StartHour*60 && m < s.cfg.EndHour*60 && (m-s.cfg.StartHour*60)%s.cfg.SlotMinutes == 0
}

// Confirmed returns every confirmed appointment ordered by date and time.
func (s *Scheduler) Confirmed() []model.Appointment {
	out := make([]model.Appointment, 0, len(s.confirmed))
	for _, a := range s.confirmed {
		out = append(out, a)
	}
	sortAppointments(out)
	return out
}

// Pending returns the staged appointment.
func (s *Scheduler) Pending() (model.Appointment, bool) {
	if s.pending == nil {
		return model.Appointment{}, false
	}
	return *s.pending, true
}

func sortAppointments(a []model.Appointment) {
	sort.Slice(a, func(i, j int) bool {
		if !a[i].Date.Equal(a[j].Date) {
			return a[i].Date.Before(a[j].Date)
		}
		return a[i].Start < a[j].Start
	})
}

// Day returns the confirmed and pending appointments on date by start time.
func (s *Scheduler) Day(date time.Time) []model.Appointment {
	return s.dayWith(model.Day(date), nil, "")
}

// dayWith lists the appointments of d, adding extra and leaving out any
// pending appointment for skip.
func (s *Scheduler) dayWith(d time.Time, extra *model.Appointment, skip string) []model.Appointment {
	var out []model.Appointment
	for _, a := range s.confirmed {
		if a.Date.Equal(d) {
			out = append(out, a)
		}
	}
	if s.pending != nil && s.pending.Date.Equal(d) && s.pending.Postcode != skip {
		out = append(out, *s.pending)
	}
	if extra != nil {
		out = append(out, *extra)
	}
	sortAppointments(out)
	return out
}

// IsScheduled reports whether postcode has a confirmed appointment.
func (s *Scheduler) IsScheduled(postcode string) bool {
	_, ok := s.confirmed[s.travel.Resolve(postcode)]
	return ok
}

// StageResult reports the outcome of staging an appointment.
type StageResult struct {
	Appointment model.Appointment
	Replaced    *model.Appointment
	Conflicts   []Conflict
}

// Stage holds an appointment for postcode at date and start until Submit.
// The date must be one of the days assigned to the postcode's region. Only
// one appointment can be pending; replace discards the previous one.
// Conflicts are informational and do not prevent staging.
func (s *Scheduler) Stage(date time.Time, start model.Clock, postcode string, duration int, replace bool) (StageResult, error) {
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}
	if duration < s.cfg.MinDuration || duration > s.cfg.MaxDuration {
		return StageResult{}, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	if !s.isSlot(start) {
		return StageResult{}, fmt.Errorf("%w: %s", ErrInvalidSlot, start)
	}
	pc := s.travel.Resolve(postcode)
	region, ok := s.regionOf[pc]
	if !ok {
		return StageResult{}, fmt.Errorf("%w: %s", ErrUnknownPostcode, pc)
	}
	if existing, ok := s.confirmed[pc]; ok {
		return StageResult{}, fmt.Errorf("%w: %s on %s at %s", ErrDuplicateLocation, pc, existing.DateKey(), existing.Start)
	}
	d := model.Day(date)
	if !s.worksOn(region, d) {
		return StageResult{}, fmt.Errorf("%w: region %d on %s", ErrDateNotInRegion, region, d.Format(model.ScheduleDateLayout))
	}
	for _, a := range s.confirmed {
		if a.Date.Equal(d) && a.Start == start {
			return StageResult{}, fmt.Errorf("%w: %s %s", ErrSlotTaken, a.DateKey(), start)
		}
	}
	var res StageResult
	if s.pending != nil {
		if !replace {
			return StageResult{}, fmt.Errorf("%w: %s on %s at %s", ErrPendingExists, s.pending.Postcode, s.pending.DateKey(), s.pending.Start)
		}
		old := *s.pending
		res.Replaced = &old
		s.pending = nil
	}
	appt := model.Appointment{Postcode: pc, Date: d, Start: start, DurationMinutes: duration}
	s.pending = &appt
	res.Appointment = appt
	res.Conflicts = s.Conflicts(d)
	s.log.Debugw("appointment staged", map[string]any{
		"postcode":  pc,
		"date":      appt.DateKey(),
		"time":      start.String(),
		"conflicts": len(res.Conflicts),
	})
	return res, nil
}

func (s *Scheduler) worksOn(region int, d time.Time) bool {
	for _, day := range s.days[region] {
		if day.Equal(d) {
			return true
		}
	}
	return false
}

// CancelPending drops the staged appointment.
func (s *Scheduler) CancelPending() (model.Appointment, error) {
	if s.pending == nil {
		return model.Appointment{}, ErrNoPending
	}
	a := *s.pending
	s.pending = nil
	return a, nil
}

// Submit confirms the pending appointment.
func (s *Scheduler) Submit(inCalendar bool) (model.Appointment, error) {
	if s.pending == nil {
		return model.Appointment{}, ErrNoPending
	}
	a := *s.pending
	if existing, ok := s.confirmed[a.Postcode]; ok {
		return model.Appointment{}, fmt.Errorf("%w: %s on %s at %s", ErrDuplicateLocation, a.Postcode, existing.DateKey(), existing.Start)
	}
	a.InCalendar = inCalendar
	s.confirmed[a.Postcode] = a
	s.pending = nil
	s.log.Infof("appointment confirmed: %s on %s at %s (%d min)", a.Postcode, a.DateKey(), a.Start, a.DurationMinutes)
	return a, nil
}

// Remove deletes the appointment starting at date and start, pending or
// confirmed. It reports whether the removed one was pending.
func (s *Scheduler) Remove(date time.Time, start model.Clock) (model.Appointment, bool, error) {
	d := model.Day(date)
	if s.pending != nil && s.pending.Date.Equal(d) && s.pending.Start == start {
		a := *s.pending
		s.pending = nil
		return a, true, nil
	}
	for pc, a := range s.confirmed {
		if a.Date.Equal(d) && a.Start == start {
			delete(s.confirmed, pc)
			return a, false, nil
		}
	}
	return model.Appointment{}, false, ErrNoAppointment
}

// ClearRegion removes every confirmed and pending appointment of region's
// customers and returns how many were removed.
func (s *Scheduler) ClearRegion(region int) (int, error) {
	n := 0
	for pc := range s.confirmed {
		if s.regionOf[pc] == region {
			delete(s.confirmed, pc)
			n++
		}
	}
	if s.pending != nil && s.regionOf[s.pending.Postcode] == region {
		s.pending = nil
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%w %d", ErrNothingToClear, region)
	}
	return n, nil
}

// Efficiency compares the booked order of date with an optimised tour
// from home.
func (s *Scheduler) Efficiency(date time.Time) (route.Efficiency, error) {
	var stops []string
	for _, a := range s.Day(date) {
		stops = append(stops, a.Postcode)
	}
	home := s.home
	if home == "" && len(stops) > 0 {
		home = stops[0]
	}
	return route.Assess(home, stops, s.travel.Cost, s.cfg.EfficiencyThreshold)
}
