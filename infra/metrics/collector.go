package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/fieldroute/core/events"
	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// stage and appointment events. Progress is recorded by the stages
// themselves. It stops when the context is canceled or the bus is closed;
// the returned channel is closed at that point.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
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
				record(sink, ev)
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.StageEvent:
		errStr := ""
		if e.Err != nil {
			errStr = e.Err.Error()
		}
		_ = sink.RecordStage(coremetrics.StageRun{
			RunID:    e.RunID,
			Project:  e.Project,
			Stage:    e.Stage,
			Items:    e.Items,
			Failures: e.Failures,
			Duration: e.Duration,
			Err:      errStr,
			Time:     time.Now(),
		})
	case events.AppointmentEvent:
		if r, ok := sink.(coremetrics.AppointmentRecorder); ok {
			_ = r.RecordAppointment(coremetrics.AppointmentChange{
				Project:  e.Project,
				Postcode: e.Postcode,
				Region:   e.Region,
				Action:   e.Action,
				Time:     time.Now(),
			})
		}
	}
}
