package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/project"
	"github.com/kilianp07/fieldroute/core/scheduler"
	"github.com/kilianp07/fieldroute/pkg/export"
)

// ErrConflicts is returned when a booking would cause a travel conflict
// and the caller did not accept it.
var ErrConflicts = errors.New("booking causes travel conflicts")

// Scheduler loads the regions, distances, calendar and confirmed
// appointments of ws. Settings in the project's scheduler.yaml override the
// configured working day.
func (s *Service) Scheduler(ws *Workspace) (*scheduler.Scheduler, error) {
	if err := project.Require(ws.Store, "scheduling"); err != nil {
		return nil, err
	}
	var in scheduler.Inputs
	var err error
	if in.Assignments, err = ws.Store.LoadAssignments(); err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	if in.Routes, err = ws.Store.LoadRoutes(); err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	if in.Schedule, err = ws.Store.LoadSchedule(); err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if in.Confirmed, err = ws.Store.LoadAppointments(); err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	cfg, err := s.cfg.Scheduler.WithOverrides(ws.Store.Path(scheduler.ProjectFile))
	if err != nil {
		return nil, err
	}
	return scheduler.New(cfg, in, ws.Logger("scheduler")), nil
}

// Booking is a confirmation request.
type Booking struct {
	Date     time.Time
	Start    model.Clock
	Postcode string
	// Duration in minutes; zero selects the configured default.
	Duration int
	// AcceptConflicts books even when a drive overlaps a visit.
	AcceptConflicts bool
	InCalendar      bool
}

// Book stages and confirms an appointment, then rewrites
// confirmed_appointments.csv. When the booking causes conflicts that were
// not accepted, nothing is saved and the staged result is returned with
// ErrConflicts.
func (s *Service) Book(ws *Workspace, sch *scheduler.Scheduler, b Booking) (scheduler.StageResult, error) {
	res, err := sch.Stage(b.Date, b.Start, b.Postcode, b.Duration, true)
	if err != nil {
		return res, err
	}
	if len(res.Conflicts) > 0 && !b.AcceptConflicts {
		_, _ = sch.CancelPending()
		return res, fmt.Errorf("%w: %d", ErrConflicts, len(res.Conflicts))
	}
	appt, err := sch.Submit(b.InCalendar)
	if err != nil {
		return res, err
	}
	if err := s.saveAppointments(ws, sch); err != nil {
		return res, err
	}
	res.Appointment = appt
	s.appointmentEvent(ws, appt, "confirmed", sch)
	return res, nil
}

// Unbook removes the confirmed appointment at date and start.
func (s *Service) Unbook(ws *Workspace, sch *scheduler.Scheduler, date time.Time, start model.Clock) (model.Appointment, error) {
	appt, _, err := sch.Remove(date, start)
	if err != nil {
		return appt, err
	}
	if err := s.saveAppointments(ws, sch); err != nil {
		return appt, err
	}
	s.appointmentEvent(ws, appt, "removed", sch)
	return appt, nil
}

// ClearRegion removes every appointment of region.
func (s *Service) ClearRegion(ws *Workspace, sch *scheduler.Scheduler, region int) (int, error) {
	n, err := sch.ClearRegion(region)
	if err != nil {
		return 0, err
	}
	if err := s.saveAppointments(ws, sch); err != nil {
		return n, err
	}
	s.publish(events.AppointmentEvent{
		Project: ws.Name,
		Region:  region,
		Action:  "cleared",
	})
	return n, nil
}

// Agenda lists the visits and drives of date.
func (s *Service) Agenda(sch *scheduler.Scheduler, date time.Time) []export.Entry {
	return export.Agenda(sch.Day(date), sch.Segments(date), sch.Conflicts(date))
}

func (s *Service) saveAppointments(ws *Workspace, sch *scheduler.Scheduler) error {
	start := s.now()
	confirmed := sch.Confirmed()
	err := ws.Store.SaveAppointments(confirmed)
	if err != nil {
		err = fmt.Errorf("save appointments: %w", err)
		s.finishStage(ws, events.StageScheduling, "", start, len(confirmed), 0, err)
	}
	return err
}

func (s *Service) appointmentEvent(ws *Workspace, a model.Appointment, action string, sch *scheduler.Scheduler) {
	loc, _ := sch.Location(a.Postcode)
	s.publish(events.AppointmentEvent{
		Project:  ws.Name,
		Postcode: a.Postcode,
		Region:   loc.Region,
		Date:     a.Date,
		Start:    a.Start.String(),
		Action:   action,
	})
	s.log.Debugw("appointment "+action, map[string]any{
		"project":   ws.Name,
		"postcode":  a.Postcode,
		"date":      a.DateKey(),
		"conflicts": len(sch.Conflicts(a.Date)),
	})
}
