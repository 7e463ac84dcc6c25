package app

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldroute/core/calendar"
	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/project"
)

// Calendar loads the regions and the saved schedule of ws.
func (s *Service) Calendar(ws *Workspace) (*calendar.Organizer, error) {
	if err := project.Require(ws.Store, "calendar"); err != nil {
		return nil, err
	}
	rows, err := ws.Store.LoadAssignments()
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	styles, err := ws.Store.LoadStyles()
	if err != nil {
		return nil, fmt.Errorf("load region names: %w", err)
	}
	var summary []model.RegionSummary
	if ws.Store.Exists(model.FileSummary) {
		if summary, err = ws.Store.LoadSummary(); err != nil {
			return nil, fmt.Errorf("load summary: %w", err)
		}
	}
	saved, err := ws.Store.LoadSchedule()
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return calendar.New(calendar.BuildRegions(rows, styles, summary), saved), nil
}

// SaveCalendar writes region_schedule.csv. Regions below their minimum
// days block the save unless force is set; the shortfalls are returned
// either way.
func (s *Service) SaveCalendar(ws *Workspace, org *calendar.Organizer, force bool) ([]calendar.Shortfall, error) {
	start := s.now()
	days, short, err := org.Schedule(force)
	if err == nil {
		if err = ws.Store.SaveSchedule(days); err != nil {
			err = fmt.Errorf("save schedule: %w", err)
		}
	}
	s.finishStage(ws, events.StageCalendar, uuid.NewString(), start, len(days), len(short), err)
	if err != nil {
		return short, err
	}
	org.MarkSaved()
	return short, nil
}

// ClearCalendar drops every assigned date and writes an empty schedule.
func (s *Service) ClearCalendar(ws *Workspace, org *calendar.Organizer) (int, error) {
	n := org.Clear()
	if err := ws.Store.SaveSchedule(nil); err != nil {
		return n, fmt.Errorf("save schedule: %w", err)
	}
	org.MarkSaved()
	return n, nil
}

// ExportCalendar writes the saved schedule as iCalendar events.
func (s *Service) ExportCalendar(org *calendar.Organizer, w io.Writer) (int, error) {
	return org.WriteICS(w, s.now())
}
