package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
)

func TestPromSink_RecordStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordStage(coremetrics.StageRun{Stage: "routing", Items: 6, Failures: 1, Duration: 2 * time.Second}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := sink.RecordStage(coremetrics.StageRun{Stage: "routing", Err: "cancelled"}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP fieldroute_stage_runs_total Total number of pipeline stage runs
# TYPE fieldroute_stage_runs_total counter
fieldroute_stage_runs_total{stage="routing",success="false"} 1
fieldroute_stage_runs_total{stage="routing",success="true"} 1
`
	if err := testutil.CollectAndCompare(sink.stages, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.stageTime); c != 1 {
		t.Errorf("duration series = %d", c)
	}
}

func TestPromSink_Recorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordAPICall(coremetrics.APICall{Service: "geocoder", Success: true, Latency: 50 * time.Millisecond})
	_ = sink.RecordAPICall(coremetrics.APICall{Service: "geocoder", Success: false})
	if v := testutil.ToFloat64(sink.apiCalls.WithLabelValues("geocoder", "false")); v != 1 {
		t.Errorf("failed calls = %v", v)
	}

	_ = sink.RecordClusterQuality(1.5, []coremetrics.RegionQuality{{Project: "p", Region: 2, Customers: 7, TotalMinutes: 90}})
	if v := testutil.ToFloat64(sink.balance); v != 1.5 {
		t.Errorf("balance = %v", v)
	}
	if v := testutil.ToFloat64(sink.customers.WithLabelValues("p", "2")); v != 7 {
		t.Errorf("customers = %v", v)
	}

	_ = sink.RecordAppointment(coremetrics.AppointmentChange{Action: "confirmed"})
	_ = sink.RecordAppointment(coremetrics.AppointmentChange{Action: "confirmed"})
	if v := testutil.ToFloat64(sink.appointments.WithLabelValues("confirmed")); v != 2 {
		t.Errorf("appointments = %v", v)
	}

	_ = sink.RecordProgress(coremetrics.Progress{Stage: "routing", Percent: 64})
	if v := testutil.ToFloat64(sink.progress.WithLabelValues("routing")); v != 64 {
		t.Errorf("progress = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = first.RecordAppointment(coremetrics.AppointmentChange{Action: "removed"})
	if v := testutil.ToFloat64(second.appointments.WithLabelValues("removed")); v != 1 {
		t.Errorf("shared counter = %v", v)
	}
}
