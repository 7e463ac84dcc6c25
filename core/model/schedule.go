package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts used by the schedule artifacts.
const (
	// ScheduleDateLayout is the date column of region_schedule.csv.
	ScheduleDateLayout = "2006-01-02"
	// AppointmentDateLayout is the date column of confirmed_appointments.csv.
	AppointmentDateLayout = "02-Jan-06"
)

// DayAssignment is one row of region_schedule.csv.
type DayAssignment struct {
	Date   time.Time
	Region int
}

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "H:MM" or "HH:MM".
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return Clock(hh*60 + mm), nil
}

// String renders the clock as "H:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", int(c)/60, int(c)%60)
}

// Format12h renders the clock as "09:30 AM".
func (c Clock) Format12h() string {
	t := time.Date(2000, 1, 1, int(c)/60, int(c)%60, 0, 0, time.UTC)
	return t.Format("03:04 PM")
}

// Add returns the clock shifted by minutes.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// Appointment is one row of confirmed_appointments.csv. Date is kept at
// midnight UTC.
type Appointment struct {
	Postcode        string
	Date            time.Time
	Start           Clock
	DurationMinutes int
	// InCalendar records whether the visit was pushed to an external calendar.
	InCalendar bool
}

// End returns the clock at which the visit finishes.
func (a Appointment) End() Clock { return a.Start.Add(a.DurationMinutes) }

// DateKey returns the appointment date in the artifact layout.
func (a Appointment) DateKey() string { return a.Date.Format(AppointmentDateLayout) }

// ParseAppointmentDate accepts the appointment layout and ISO dates.
func ParseAppointmentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(AppointmentDateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(ScheduleDateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
