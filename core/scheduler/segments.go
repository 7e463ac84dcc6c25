package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/fieldroute/core/model"
)

// SegmentKind tells where a drive starts and ends.
type SegmentKind int

const (
	FromHome SegmentKind = iota
	Between
	ToHome
)

func (k SegmentKind) String() string {
	switch k {
	case FromHome:
		return "from home"
	case Between:
		return "between"
	case ToHome:
		return "to home"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is a drive on a working day.
type Segment struct {
	Kind    SegmentKind
	From    string
	To      string
	Start   model.Clock
	End     model.Clock
	Minutes int
	// OutOfHours is set when the drive starts before or ends after the
	// working day.
	OutOfHours bool
}

// Conflict is a drive that overlaps a visit, or leaves the working day when
// Appointment is nil.
type Conflict struct {
	Segment     Segment
	Appointment *model.Appointment
}

func (c Conflict) String() string {
	if c.Appointment == nil {
		return fmt.Sprintf("drive %s→%s (%s-%s) is outside working hours", c.Segment.From, c.Segment.To, c.Segment.Start, c.Segment.End)
	}
	return fmt.Sprintf("drive %s→%s (%s-%s) overlaps %s at %s", c.Segment.From, c.Segment.To,
		c.Segment.Start, c.Segment.End, c.Appointment.Postcode, c.Appointment.Start)
}

// Segments returns the drives of date in order: home to the first visit,
// between consecutive visits, and the last visit back home. Without a home
// base only the drives between visits are returned.
func (s *Scheduler) Segments(date time.Time) []Segment {
	return s.segmentsOf(s.Day(date))
}

func (s *Scheduler) segmentsOf(day []model.Appointment) []Segment {
	if len(day) == 0 {
		return nil
	}
	dayStart, dayEnd := model.Clock(s.cfg.StartHour*60), model.Clock(s.cfg.EndHour*60)
	segs := make([]Segment, 0, len(day)+1)

	if s.home != "" {
		first := day[0]
		t := s.travel.Minutes(s.home, first.Postcode)
		segs = append(segs, Segment{
			Kind: FromHome, From: s.home, To: first.Postcode,
			Start: first.Start.Add(-t), End: first.Start, Minutes: t,
			OutOfHours: first.Start.Add(-t) < dayStart,
		})
	}
	for i := 1; i < len(day); i++ {
		prev, next := day[i-1], day[i]
		t := s.travel.Minutes(prev.Postcode, next.Postcode)
		segs = append(segs, Segment{
			Kind: Between, From: prev.Postcode, To: next.Postcode,
			Start: prev.End(), End: prev.End().Add(t), Minutes: t,
		})
	}
	if s.home != "" {
		last := day[len(day)-1]
		t := s.travel.Minutes(last.Postcode, s.home)
		segs = append(segs, Segment{
			Kind: ToHome, From: last.Postcode, To: s.home,
			Start: last.End(), End: last.End().Add(t), Minutes: t,
			OutOfHours: last.End().Add(t) > dayEnd,
		})
	}
	return segs
}

// Conflicts returns every drive of date that overlaps a visit or leaves the
// working day.
func (s *Scheduler) Conflicts(date time.Time) []Conflict {
	return s.conflictsOf(s.Day(date), true)
}

func (s *Scheduler) conflictsOf(day []model.Appointment, withHours bool) []Conflict {
	var out []Conflict
	for _, seg := range s.segmentsOf(day) {
		if withHours && seg.OutOfHours {
			out = append(out, Conflict{Segment: seg})
		}
		for i := range day {
			a := day[i]
			if seg.Start < a.End() && seg.End > a.Start {
				out = append(out, Conflict{Segment: seg, Appointment: &a})
			}
		}
	}
	return out
}

// Slot is a bookable start on a region day.
type Slot struct {
	Date  time.Time
	Start model.Clock
}

// AvailableSlots lists the starts on the days of postcode's region where a
// visit of duration fits inside the working day, overlaps no booked visit
// and causes no drive to overlap a visit.
func (s *Scheduler) AvailableSlots(postcode string, duration int) ([]Slot, error) {
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}
	if duration < s.cfg.MinDuration || duration > s.cfg.MaxDuration {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	pc := s.travel.Resolve(postcode)
	region, ok := s.regionOf[pc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPostcode, pc)
	}
	dayEnd := model.Clock(s.cfg.EndHour * 60)
	var out []Slot
	for _, d := range s.days[region] {
		booked := s.dayWith(d, nil, pc)
		for _, start := range s.Slots() {
			cand := model.Appointment{Postcode: pc, Date: d, Start: start, DurationMinutes: duration}
			if cand.End() > dayEnd || overlapsAny(cand, booked) {
				continue
			}
			if len(s.conflictsOf(s.dayWith(d, &cand, pc), false)) > 0 {
				continue
			}
			out = append(out, Slot{Date: d, Start: start})
		}
	}
	return out, nil
}

func overlapsAny(a model.Appointment, day []model.Appointment) bool {
	for _, b := range day {
		if a.Start < b.End() && a.End() > b.Start {
			return true
		}
	}
	return false
}

// TravelEntry is one row of a travel report.
type TravelEntry struct {
	Postcode   string
	ClientName string
	Minutes    int
	Scheduled  bool
}

// TravelReport lists the drive from a customer to the rest of its region,
// and from every region customer to home when there is one. Both tables
// are sorted by driving time.
type TravelReport struct {
	Postcode string
	Region   int
	Nearby   []TravelEntry
	ToHome   []TravelEntry
}

// Report builds the travel report of postcode.
func (s *Scheduler) Report(postcode string) (TravelReport, error) {
	pc := s.travel.Resolve(postcode)
	region, ok := s.regionOf[pc]
	if !ok {
		return TravelReport{}, fmt.Errorf("%w: %s", ErrUnknownPostcode, pc)
	}
	rep := TravelReport{Postcode: pc, Region: region}
	for _, other := range s.members[region] {
		e := TravelEntry{
			Postcode:   other,
			ClientName: s.locations[other].ClientName,
			Scheduled:  s.IsScheduled(other),
		}
		if s.home != "" {
			e.Minutes = s.travel.Minutes(other, s.home)
			rep.ToHome = append(rep.ToHome, e)
		}
		if other == pc {
			continue
		}
		e.Minutes = s.travel.Minutes(pc, other)
		rep.Nearby = append(rep.Nearby, e)
	}
	byMinutes(rep.Nearby)
	byMinutes(rep.ToHome)
	return rep, nil
}

func byMinutes(rows []TravelEntry) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Minutes != rows[j].Minutes {
			return rows[i].Minutes < rows[j].Minutes
		}
		return rows[i].Postcode < rows[j].Postcode
	})
}
