package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/scheduler"
)

func sampleDay() []Entry {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	visits := []model.Appointment{
		{Postcode: "B1", Date: day, Start: 600, DurationMinutes: 60},
		{Postcode: "A1", Date: day, Start: 540, DurationMinutes: 30},
	}
	drives := []scheduler.Segment{
		{Kind: scheduler.FromHome, From: "H1", To: "A1", Start: 520, End: 540, Minutes: 20},
		{Kind: scheduler.Between, From: "A1", To: "B1", Start: 570, End: 615, Minutes: 45},
		{Kind: scheduler.ToHome, From: "B1", To: "H1", Start: 660, End: 680, Minutes: 20},
	}
	conflicts := []scheduler.Conflict{{Segment: drives[1], Appointment: &visits[0]}}
	return Agenda(visits, drives, conflicts)
}

func TestAgendaOrder(t *testing.T) {
	entries := sampleDay()
	require.Len(t, entries, 5)
	kinds := make([]string, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind + ":" + e.Start
	}
	assert.Equal(t, []string{"drive:8:40", "visit:9:00", "drive:9:30", "visit:10:00", "drive:11:00"}, kinds)
	assert.True(t, entries[2].Conflict)
	assert.False(t, entries[0].Conflict)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDay()))
	var out []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "A1", out[1].From)
	assert.Equal(t, 45, out[2].Minutes)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDay()[:2]))
	assert.Equal(t, "kind,from,to,start,end,minutes,conflict\ndrive,H1,A1,8:40,9:00,20,false\nvisit,A1,A1,9:00,9:30,30,false\n", buf.String())
}
