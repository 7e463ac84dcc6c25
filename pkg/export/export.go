// Package export writes a working day as a flat agenda of visits and drives.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/scheduler"
)

// Entry is one line of the agenda.
type Entry struct {
	Kind     string `json:"kind"`
	From     string `json:"from"`
	To       string `json:"to"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Minutes  int    `json:"minutes"`
	Conflict bool   `json:"conflict"`
}

// Agenda merges the visits and drives of a day ordered by start time.
// Drives listed in conflicts are flagged.
func Agenda(visits []model.Appointment, drives []scheduler.Segment, conflicts []scheduler.Conflict) []Entry {
	type row struct {
		start model.Clock
		order int
		e     Entry
	}
	flagged := map[scheduler.Segment]bool{}
	for _, c := range conflicts {
		flagged[c.Segment] = true
	}
	rows := make([]row, 0, len(visits)+len(drives))
	for _, d := range drives {
		rows = append(rows, row{start: d.Start, order: 0, e: Entry{
			Kind: "drive", From: d.From, To: d.To,
			Start: d.Start.String(), End: d.End.String(),
			Minutes: d.Minutes, Conflict: flagged[d] || d.OutOfHours,
		}})
	}
	for _, v := range visits {
		rows = append(rows, row{start: v.Start, order: 1, e: Entry{
			Kind: "visit", From: v.Postcode, To: v.Postcode,
			Start: v.Start.String(), End: v.End().String(),
			Minutes: v.DurationMinutes,
		}})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].start != rows[j].start {
			return rows[i].start < rows[j].start
		}
		return rows[i].order < rows[j].order
	})
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.e
	}
	return out
}

// WriteJSON writes the agenda to w in JSON format.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the agenda to w in CSV format.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "from", "to", "start", "end", "minutes", "conflict"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Kind,
			e.From,
			e.To,
			e.Start,
			e.End,
			strconv.Itoa(e.Minutes),
			strconv.FormatBool(e.Conflict),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
