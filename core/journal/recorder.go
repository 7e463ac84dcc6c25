package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/logger"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

// FromEvent converts a bus event to a Record. ok is false for events that
// are not journaled.
func FromEvent(ev eventbus.Event, now time.Time) (Record, bool) {
	switch e := ev.(type) {
	case events.StageEvent:
		r := Record{
			ID:         uuid.NewString(),
			Timestamp:  now,
			Kind:       KindStage,
			RunID:      e.RunID,
			Project:    e.Project,
			Stage:      e.Stage,
			Items:      e.Items,
			Failures:   e.Failures,
			DurationMS: e.Duration.Milliseconds(),
		}
		if e.Err != nil {
			r.Error = e.Err.Error()
		}
		return r, true
	case events.AppointmentEvent:
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format("2006-01-02")
		}
		return Record{
			ID:        uuid.NewString(),
			Timestamp: now,
			Kind:      KindAppointment,
			Project:   e.Project,
			Stage:     events.StageScheduling,
			Items:     1,
			Details: map[string]string{
				"postcode": e.Postcode,
				"date":     date,
				"start":    e.Start,
				"region":   strconv.Itoa(e.Region),
				"action":   e.Action,
			},
		}, true
	}
	return Record{}, false
}

// StartRecorder appends stage and appointment events to store until ctx is
// done or the bus closes. The returned channel is closed when it stops.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				rec, keep := FromEvent(ev, time.Now())
				if !keep {
					continue
				}
				if err := store.Append(context.Background(), rec); err != nil {
					log.Warnf("journal append: %v", err)
				}
			}
		}
	}()
	return done
}
