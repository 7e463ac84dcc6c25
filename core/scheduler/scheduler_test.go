package scheduler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/infra/logger"
)

var (
	monday  = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
)

func clock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	require.NoError(t, err)
	return c
}

func fixture(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	in := Inputs{
		Assignments: []model.Assignment{
			{Postcode: "h1", Region: model.RegionDepot},
			{Postcode: "A1", Region: 1},
			{Postcode: "A2", Region: 1, ClientName: "Bakery"},
			{Postcode: "A3", Region: 1},
			{Postcode: "B1", Region: 2},
			{Postcode: "X1", Region: model.RegionExcluded},
		},
		Routes: []model.Route{
			{Origin: "H1", Destination: "A1", DrivingMinutes: 20},
			{Origin: "H1", Destination: "A2", DrivingMinutes: 25},
			{Origin: "H1", Destination: "A3", DrivingMinutes: 40},
			{Origin: "A1", Destination: "A2", DrivingMinutes: 10},
			{Origin: "A1", Destination: "A3", DrivingMinutes: 45},
			{Origin: "A2", Destination: "A3", DrivingMinutes: 15},
			{Origin: "A3", Destination: "B1", DrivingMinutes: 0.4},
		},
		Schedule: []model.DayAssignment{
			{Date: tuesday, Region: 2},
			{Date: monday.Add(9 * time.Hour), Region: 1},
		},
	}
	return New(cfg, in, logger.NopLogger{})
}

func book(t *testing.T, s *Scheduler, date time.Time, at, pc string) model.Appointment {
	t.Helper()
	if _, err := s.Stage(date, clock(t, at), pc, 60, false); err != nil {
		t.Fatalf("stage %s: %v", pc, err)
	}
	a, err := s.Submit(false)
	if err != nil {
		t.Fatalf("submit %s: %v", pc, err)
	}
	return a
}

func TestNewIndexesInputs(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	assert.Equal(t, "H1", s.Home())
	assert.Equal(t, []int{1, 2}, s.Regions())
	assert.Equal(t, []string{"A1", "A2", "A3"}, s.RegionPostcodes(1))
	assert.Equal(t, []time.Time{monday}, s.RegionDates(1))
	loc, ok := s.Location("bakery")
	require.True(t, ok)
	assert.Equal(t, "A2", loc.Postcode)
}

func TestNewLoadsConfirmedWithDefaultDuration(t *testing.T) {
	cfg := SchedulerConfig{}
	cfg.SetDefaults()
	s := New(cfg, Inputs{
		Assignments: []model.Assignment{{Postcode: "A1", Region: 1}},
		Confirmed:   []model.Appointment{{Postcode: "a1", Date: monday.Add(time.Hour), Start: 9 * 60}},
	}, logger.NopLogger{})
	got := s.Confirmed()
	require.Len(t, got, 1)
	assert.Equal(t, 60, got[0].DurationMinutes)
	assert.Equal(t, monday, got[0].Date)
	assert.True(t, s.IsScheduled("A1"))
}

func TestTravelMinutes(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	tr := s.Travel()
	assert.Equal(t, 0, tr.Minutes("A1", "a1"))
	assert.Equal(t, 10, tr.Minutes("a2", "A1"))
	assert.Equal(t, 10, tr.Minutes("Bakery", "A1"))
	assert.Equal(t, 1, tr.Minutes("A3", "B1"))
	assert.Equal(t, 30, tr.Minutes("H1", "B1"))
	assert.Equal(t, 30, tr.Minutes("", "B1"))
	assert.Equal(t, 30.0, NewTravel(nil, nil, 0).Cost("A", "B"))
}

func TestSlots(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	slots := s.Slots()
	require.Len(t, slots, 22)
	assert.Equal(t, "8:00", slots[0].String())
	assert.Equal(t, "18:30", slots[len(slots)-1].String())
}

func TestStageAndSubmit(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	res, err := s.Stage(monday, clock(t, "9:00"), "a1", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Appointment.DurationMinutes)
	assert.Nil(t, res.Replaced)

	_, err = s.Stage(monday, clock(t, "11:00"), "A2", 60, false)
	assert.ErrorIs(t, err, ErrPendingExists)

	res, err = s.Stage(monday, clock(t, "11:00"), "bakery", 90, true)
	require.NoError(t, err)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, "A1", res.Replaced.Postcode)
	assert.Equal(t, "A2", res.Appointment.Postcode)

	a, err := s.Submit(true)
	require.NoError(t, err)
	assert.True(t, a.InCalendar)
	_, ok := s.Pending()
	assert.False(t, ok)

	_, err = s.Submit(false)
	assert.ErrorIs(t, err, ErrNoPending)
	_, err = s.Stage(tuesday, clock(t, "9:00"), "A2", 60, false)
	assert.ErrorIs(t, err, ErrDuplicateLocation)
	_, err = s.Stage(monday, clock(t, "11:00"), "A3", 60, false)
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = s.Stage(monday, clock(t, "9:15"), "A3", 60, false)
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = s.Stage(monday, clock(t, "19:00"), "A3", 60, false)
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = s.Stage(monday, clock(t, "9:00"), "X1", 60, false)
	assert.ErrorIs(t, err, ErrUnknownPostcode)
	_, err = s.Stage(monday, clock(t, "9:00"), "A3", 20, false)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCancelPending(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	_, err := s.CancelPending()
	assert.ErrorIs(t, err, ErrNoPending)
	_, err = s.Stage(monday, clock(t, "9:00"), "A1", 60, false)
	require.NoError(t, err)
	a, err := s.CancelPending()
	require.NoError(t, err)
	assert.Equal(t, "A1", a.Postcode)
	assert.Empty(t, s.Day(monday))
}

func TestSegmentsAndConflicts(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	book(t, s, monday, "9:00", "A1")
	book(t, s, monday, "10:00", "A2")

	segs := s.Segments(monday)
	require.Len(t, segs, 3)
	assert.Equal(t, Segment{Kind: FromHome, From: "H1", To: "A1", Start: clock(t, "8:40"), End: clock(t, "9:00"), Minutes: 20}, segs[0])
	assert.Equal(t, Segment{Kind: Between, From: "A1", To: "A2", Start: clock(t, "10:00"), End: clock(t, "10:10"), Minutes: 10}, segs[1])
	assert.Equal(t, Segment{Kind: ToHome, From: "A2", To: "H1", Start: clock(t, "11:00"), End: clock(t, "11:25"), Minutes: 25}, segs[2])

	conf := s.Conflicts(monday)
	require.Len(t, conf, 1)
	require.NotNil(t, conf[0].Appointment)
	assert.Equal(t, "A2", conf[0].Appointment.Postcode)
	assert.Equal(t, Between, conf[0].Segment.Kind)
	assert.Contains(t, conf[0].String(), "overlaps A2")
}

func TestOutOfHoursDrives(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	res, err := s.Stage(monday, clock(t, "8:00"), "A1", 60, false)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Nil(t, res.Conflicts[0].Appointment)
	assert.Equal(t, FromHome, res.Conflicts[0].Segment.Kind)
	assert.True(t, res.Conflicts[0].Segment.OutOfHours)

	_, err = s.Stage(monday, clock(t, "18:30"), "A1", 30, true)
	require.NoError(t, err)
	segs := s.Segments(monday)
	require.Len(t, segs, 2)
	assert.False(t, segs[0].OutOfHours)
	assert.True(t, segs[1].OutOfHours)
	assert.Contains(t, s.Conflicts(monday)[0].String(), "outside working hours")
}

func TestAvailableSlots(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	book(t, s, monday, "9:00", "A1")

	slots, err := s.AvailableSlots("A3", 60)
	require.NoError(t, err)
	require.Len(t, slots, 15)
	assert.Equal(t, Slot{Date: monday, Start: clock(t, "11:00")}, slots[0])
	assert.Equal(t, Slot{Date: monday, Start: clock(t, "18:00")}, slots[len(slots)-1])

	slots, err = s.AvailableSlots("B1", 180)
	require.NoError(t, err)
	assert.Len(t, slots, 17)
	assert.Equal(t, tuesday, slots[0].Date)

	_, err = s.AvailableSlots("A3", 500)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	_, err = s.AvailableSlots("ZZ", 60)
	assert.ErrorIs(t, err, ErrUnknownPostcode)
}

func TestRemoveAndClearRegion(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	book(t, s, monday, "9:00", "A1")

	a, pending, err := s.Remove(monday, clock(t, "9:00"))
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, "A1", a.Postcode)
	_, _, err = s.Remove(monday, clock(t, "9:00"))
	assert.ErrorIs(t, err, ErrNoAppointment)

	book(t, s, monday, "9:00", "A1")
	book(t, s, tuesday, "9:00", "B1")
	_, err = s.Stage(monday, clock(t, "13:00"), "A2", 60, false)
	require.NoError(t, err)

	n, err := s.ClearRegion(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.Confirmed(), 1)
	_, err = s.ClearRegion(1)
	assert.ErrorIs(t, err, ErrNothingToClear)
}

func TestOptimalDays(t *testing.T) {
	assert.Equal(t, 1, fixture(t, SchedulerConfig{}).OptimalDays(1))
	assert.Equal(t, 2, fixture(t, SchedulerConfig{MaxPerDay: 2}).OptimalDays(1))
	assert.Zero(t, fixture(t, SchedulerConfig{}).OptimalDays(9))
}

func TestReport(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	book(t, s, monday, "9:00", "A2")

	rep, err := s.Report("A1")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Region)
	assert.Equal(t, []TravelEntry{
		{Postcode: "A2", ClientName: "Bakery", Minutes: 10, Scheduled: true},
		{Postcode: "A3", Minutes: 45},
	}, rep.Nearby)
	require.Len(t, rep.ToHome, 3)
	assert.Equal(t, 20, rep.ToHome[0].Minutes)
	assert.Equal(t, 40, rep.ToHome[2].Minutes)
}

func TestEfficiency(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	book(t, s, monday, "9:00", "A3")
	book(t, s, monday, "11:00", "A1")
	book(t, s, monday, "14:00", "A2")

	e, err := s.Efficiency(monday)
	require.NoError(t, err)
	assert.Equal(t, 120.0, e.Actual)
	assert.Equal(t, 85.0, e.Optimal)
	assert.True(t, e.Inefficient)
	assert.Len(t, e.Suggested, 3)
}

func TestDurationText(t *testing.T) {
	cases := map[int]string{30: "30 minutes", 60: "1 hour", 90: "1.5 hours", 120: "2 hours", 150: "2.5 hours"}
	for in, want := range cases {
		if got := DurationText(in); got != want {
			t.Fatalf("DurationText(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatOffer(t *testing.T) {
	assert.Equal(t, "No time slots selected.", FormatOffer(nil, 60, 30))

	slots := []Slot{
		{Date: tuesday, Start: 8 * 60},
		{Date: monday, Start: 10 * 60},
		{Date: monday, Start: 9 * 60},
		{Date: monday, Start: 14 * 60},
		{Date: monday, Start: 9*60 + 30},
	}
	want := strings.Join([]string{
		"I can offer a 1.5 hours appointment starting at any of these times:",
		"",
		"• Monday, 04-Mar-24: 09:00 AM - 10:00 AM",
		"• Monday, 04-Mar-24: 02:00 PM - 02:00 PM",
		"• Tuesday, 05-Mar-24: 08:00 AM - 08:00 AM",
		"",
		"Please let me know which time(s) works best for you.",
	}, "\n")
	assert.Equal(t, want, FormatOffer(slots, 90, 30))
}

func TestWithOverrides(t *testing.T) {
	base := SchedulerConfig{MaxPerDay: 6}
	base.SetDefaults()
	dir := t.TempDir()

	same, err := base.WithOverrides(filepath.Join(dir, ProjectFile))
	require.NoError(t, err)
	assert.Equal(t, base, same)

	path := filepath.Join(dir, ProjectFile)
	require.NoError(t, os.WriteFile(path, []byte("start_hour: 7\nend_hour: 17\n"), 0o644))
	cfg, err := base.WithOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.StartHour)
	assert.Equal(t, 17, cfg.EndHour)
	assert.Equal(t, 6, cfg.MaxPerDay)
	assert.Equal(t, 30, cfg.SlotMinutes)

	for _, body := range []string{"start_hour: 9\nend_hour: 9\n", "slot_minutes: 25\n", "lunch_break: 60\n"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		got, err := base.WithOverrides(path)
		assert.Error(t, err, body)
		assert.Equal(t, base, got)
	}
}

func TestStageOnlyOnRegionDays(t *testing.T) {
	s := fixture(t, SchedulerConfig{})
	wednesday := tuesday.AddDate(0, 0, 1)

	_, err := s.Stage(tuesday, clock(t, "9:00"), "A1", 60, false)
	assert.ErrorIs(t, err, ErrDateNotInRegion)
	_, err = s.Stage(wednesday, clock(t, "9:00"), "A2", 60, false)
	assert.ErrorIs(t, err, ErrDateNotInRegion)
	_, ok := s.Pending()
	assert.False(t, ok)

	_, err = s.Stage(tuesday, clock(t, "9:00"), "B1", 60, false)
	require.NoError(t, err)
}

func noHomeFixture(t *testing.T) *Scheduler {
	t.Helper()
	cfg := SchedulerConfig{}
	cfg.SetDefaults()
	return New(cfg, Inputs{
		Assignments: []model.Assignment{
			{Postcode: "A1", Region: 1},
			{Postcode: "A2", Region: 1},
		},
		Routes:   []model.Route{{Origin: "A1", Destination: "A2", DrivingMinutes: 10}},
		Schedule: []model.DayAssignment{{Date: monday, Region: 1}},
	}, logger.NopLogger{})
}

func TestSegmentsWithoutHome(t *testing.T) {
	s := noHomeFixture(t)
	require.Empty(t, s.Home())

	res, err := s.Stage(monday, clock(t, "8:00"), "A1", 60, false)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	_, err = s.Submit(false)
	require.NoError(t, err)
	book(t, s, monday, "18:00", "A2")

	segs := s.Segments(monday)
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Kind: Between, From: "A1", To: "A2", Start: clock(t, "9:00"), End: clock(t, "9:10"), Minutes: 10}, segs[0])
	assert.Empty(t, s.Conflicts(monday))

	rep, err := s.Report("A1")
	require.NoError(t, err)
	assert.Empty(t, rep.ToHome)
	require.Len(t, rep.Nearby, 1)
}

func TestReportSortsHomeDrives(t *testing.T) {
	cfg := SchedulerConfig{}
	cfg.SetDefaults()
	s := New(cfg, Inputs{
		Assignments: []model.Assignment{
			{Postcode: "H1", Region: model.RegionDepot},
			{Postcode: "A1", Region: 1},
			{Postcode: "A2", Region: 1},
			{Postcode: "A3", Region: 1},
		},
		Routes: []model.Route{
			{Origin: "H1", Destination: "A1", DrivingMinutes: 50},
			{Origin: "H1", Destination: "A2", DrivingMinutes: 15},
			{Origin: "H1", Destination: "A3", DrivingMinutes: 35},
		},
	}, logger.NopLogger{})

	rep, err := s.Report("A1")
	require.NoError(t, err)
	var order []string
	for _, e := range rep.ToHome {
		order = append(order, e.Postcode)
	}
	assert.Equal(t, []string{"A2", "A3", "A1"}, order)
}
