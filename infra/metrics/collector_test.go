package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/events"
	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

type capture struct {
	coremetrics.NopSink
	mu     sync.Mutex
	stages []coremetrics.StageRun
	appts  []coremetrics.AppointmentChange
}

func (c *capture) RecordStage(r coremetrics.StageRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, r)
	return nil
}

func (c *capture) RecordAppointment(a coremetrics.AppointmentChange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appts = append(c.appts, a)
	return nil
}

func (c *capture) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stages), len(c.appts)
}

func TestStartEventCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := eventbus.New()
	sink := &capture{}
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.StageEvent{RunID: "r1", Stage: events.StageRouting, Items: 3, Err: errors.New("boom")})
	bus.Publish(events.ProgressEvent{Stage: events.StageRouting, Percent: 50})
	bus.Publish(events.AppointmentEvent{Project: "p", Postcode: "A1", Action: "confirmed"})

	require.Eventually(t, func() bool {
		s, a := sink.counts()
		return s == 1 && a == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "boom", sink.stages[0].Err)
	assert.Equal(t, "confirmed", sink.appts[0].Action)
}
