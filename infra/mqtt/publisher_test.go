package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

type memPublisher struct {
	mu   sync.Mutex
	msgs map[string][]byte
}

func (m *memPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgs == nil {
		m.msgs = map[string][]byte{}
	}
	m.msgs[topic] = payload
	return nil
}

func (m *memPublisher) Disconnect() {}

func (m *memPublisher) get(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.msgs[topic]
	return b, ok
}

func TestProgressPublisherHandle(t *testing.T) {
	pub := &memPublisher{}
	p := NewProgressPublisher(pub, "fr")

	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, p.Handle(events.ProgressEvent{RunID: "r1", Stage: events.StageRouting, Done: 3, Total: 6, Percent: 65, At: at}))
	raw, ok := pub.get("fr/progress/routing")
	require.True(t, ok)
	var prog map[string]any
	require.NoError(t, json.Unmarshal(raw, &prog))
	assert.Equal(t, "r1", prog["run_id"])
	assert.Equal(t, 65.0, prog["percent"])

	require.NoError(t, p.Handle(events.StageEvent{Stage: events.StageClustering, Items: 12, Duration: 1500 * time.Millisecond, Err: errors.New("no routes")}))
	raw, ok = pub.get("fr/stage/clustering")
	require.True(t, ok)
	var stage map[string]any
	require.NoError(t, json.Unmarshal(raw, &stage))
	assert.Equal(t, "no routes", stage["error"])
	assert.Equal(t, 1500.0, stage["duration_ms"])

	require.NoError(t, p.Handle(events.AppointmentEvent{Postcode: "AB1 2CD", Date: at, Start: "9:00", Action: "confirmed"}))
	raw, ok = pub.get("fr/appointments")
	require.True(t, ok)
	assert.Contains(t, string(raw), `"date":"2024-03-04"`)

	assert.NoError(t, p.Handle("ignored"))
}

func TestProgressPublisherStart(t *testing.T) {
	pub := &memPublisher{}
	bus := eventbus.New()
	done := NewProgressPublisher(pub, "").Start(context.Background(), bus)
	bus.Publish(events.ProgressEvent{Stage: events.StageGeocoding, Percent: 10})
	require.Eventually(t, func() bool {
		_, ok := pub.get("fieldroute/progress/geocoding")
		return ok
	}, time.Second, 5*time.Millisecond)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after bus close")
	}
}
