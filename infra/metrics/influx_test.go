package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordStage(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	run := coremetrics.StageRun{RunID: "r1", Project: "north", Stage: "routing", Items: 10, Failures: 2, Duration: 1500 * time.Millisecond, Time: now}
	if err := sink.RecordStage(run); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("stage_run").
		AddTag("stage", "routing").
		AddTag("run_id", "r1").
		AddTag("project", "north").
		AddField("items", 10).
		AddField("failures", 2).
		AddField("duration_s", 1.5).
		AddField("error", "").
		SetTime(now)
	if len(rec.bodies) != 1 || rec.bodies[0] != line(p) {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordAPICall(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordAPICall(coremetrics.APICall{Service: "geocoder", Success: true, Latency: 120 * time.Millisecond, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("api_call").
		AddTag("service", "geocoder").
		AddTag("success", "true").
		AddField("latency_ms", 120.0).
		SetTime(now)
	if len(rec.bodies) != 1 || rec.bodies[0] != line(p) {
		t.Errorf("bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordClusterQuality(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	regions := []coremetrics.RegionQuality{
		{Project: "north", Region: 1, Customers: 4, TotalMinutes: 80, MinimumDays: 2, Time: now},
		{Project: "north", Region: 2, Customers: 3, TotalMinutes: 40, MinimumDays: 1, Time: now},
	}
	if err := sink.RecordClusterQuality(2, regions); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(rec.bodies))
	}
	p := write.NewPointWithMeasurement("region_quality").
		AddTag("project", "north").
		AddTag("region", "2").
		AddField("customers", 3).
		AddField("driving_minutes", 40.0).
		AddField("minimum_days", 1).
		AddField("balance_ratio", 2.0).
		SetTime(now)
	if rec.bodies[1] != line(p) {
		t.Errorf("unexpected body: %s", rec.bodies[1])
	}
}

func TestInfluxSink_RecordAppointment(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.AppointmentChange{Project: "north", Postcode: "AB1 2CD", Region: 3, Action: "confirmed", Conflicts: 1, Time: now}
	if err := sink.RecordAppointment(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("appointment_change").
		AddTag("project", "north").
		AddTag("action", "confirmed").
		AddTag("postcode", "AB1 2CD").
		AddField("region", 3).
		AddField("conflicts", 1).
		SetTime(now)
	if len(rec.bodies) != 1 || rec.bodies[0] != line(p) {
		t.Errorf("bodies: %#v", rec.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
