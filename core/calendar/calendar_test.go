package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/model"
)

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func organizer() *Organizer {
	rows := []model.Assignment{
		{Postcode: "home", Region: 0},
		{Postcode: "b2", Region: 2, ClientName: " Bakery "},
		{Postcode: "a1", Region: 1},
		{Postcode: "a2", Region: 1},
		{Postcode: "x9", Region: -1},
	}
	styles := []model.RegionStyle{{Region: 1, Name: "North", ColorCode: 8}}
	summary := []model.RegionSummary{{Region: 1, MinimumDays: 2}, {Region: 2, MinimumDays: 1}, {Excluded: true, Region: -1, MinimumDays: 5}}
	return New(BuildRegions(rows, styles, summary), nil)
}

func TestBuildRegions(t *testing.T) {
	regs := organizer().Regions()
	require.Len(t, regs, 2)
	assert.Equal(t, "North", regs[0].Name)
	assert.Equal(t, 8, regs[0].ColorCode)
	assert.Equal(t, []string{"A1", "A2"}, regs[0].Postcodes)
	assert.Equal(t, 2, regs[0].MinimumDays)
	assert.Equal(t, "Region 2", regs[1].Name)
	assert.Equal(t, 1, regs[1].ColorCode)
	assert.Equal(t, "Bakery", regs[1].ClientNames["B2"])
}

func TestToggle(t *testing.T) {
	o := organizer()
	act, _, err := o.Toggle(day(4).Add(15*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, Assigned, act)
	assert.False(t, o.Saved())

	act, prev, err := o.Toggle(day(4), 2)
	require.NoError(t, err)
	assert.Equal(t, Reassigned, act)
	assert.Equal(t, 1, prev)

	act, _, err = o.Toggle(day(4), 2)
	require.NoError(t, err)
	assert.Equal(t, Unassigned, act)
	assert.Zero(t, o.Len())

	_, _, err = o.Toggle(day(4), 7)
	assert.ErrorIs(t, err, ErrUnknownRegion)
}

func TestWarningsAndSchedule(t *testing.T) {
	o := organizer()
	_, _, err := o.Schedule(false)
	assert.ErrorIs(t, err, ErrNoAssignments)

	_, _, _ = o.Toggle(day(6), 1)
	_, _, _ = o.Toggle(day(5), 2)
	warn := o.Warnings()
	require.Len(t, warn, 1)
	assert.Equal(t, Shortfall{Region: 1, Name: "North", Assigned: 1, Minimum: 2}, warn[0])

	_, got, err := o.Schedule(false)
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.Len(t, got, 1)

	rows, _, err := o.Schedule(true)
	require.NoError(t, err)
	assert.Equal(t, []model.DayAssignment{{Date: day(5), Region: 2}, {Date: day(6), Region: 1}}, rows)
	assert.Equal(t, []time.Time{day(6)}, o.DaysFor(1))
}

func TestClear(t *testing.T) {
	o := New(organizer().Regions(), []model.DayAssignment{{Date: day(1), Region: 1}, {Date: day(2), Region: 2}})
	assert.True(t, o.Saved())
	assert.Equal(t, 2, o.Clear())
	assert.False(t, o.Saved())
	assert.Zero(t, o.Clear())
}

func TestWriteICS(t *testing.T) {
	o := organizer()
	var buf bytes.Buffer
	_, err := o.WriteICS(&buf, day(1))
	assert.ErrorIs(t, err, ErrNoAssignments)

	_, _, _ = o.Toggle(day(8), 1)
	_, err = o.WriteICS(&buf, day(1))
	assert.ErrorIs(t, err, ErrUnsaved)

	o.MarkSaved()
	n, err := o.WriteICS(&buf, day(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240308")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240309")
	assert.Contains(t, out, "SUMMARY:North")
	assert.Contains(t, out, "COLOR:royalblue")
	assert.Contains(t, out, "TRANSP:TRANSPARENT")
}

func TestWriteICSFoldsAndEscapes(t *testing.T) {
	long := "North coast, the estuary villages; and every farm beyond the ridge road"
	rows := []model.Assignment{{Postcode: "a1", Region: 1}}
	styles := []model.RegionStyle{{Region: 1, Name: long, ColorCode: 24}}
	o := New(BuildRegions(rows, styles, nil), []model.DayAssignment{{Date: day(11), Region: 1}})

	var buf bytes.Buffer
	n, err := o.WriteICS(&buf, day(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	for _, l := range strings.Split(buf.String(), "\r\n") {
		assert.LessOrEqual(t, len(l), 75, l)
	}
	assert.Contains(t, buf.String(), "COLOR:darkslateblue")

	cal, err := ics.ParseCalendar(&buf)
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, long, events[0].GetProperty(ics.ComponentPropertySummary).Value)
	start, err := events[0].GetAllDayStartAt()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", start.Format("2006-01-02"))
}
