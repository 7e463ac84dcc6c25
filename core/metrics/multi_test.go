package metrics

import (
	"errors"
	"testing"
)

type stageOnly struct{ runs int }

func (s *stageOnly) RecordStage(StageRun) error { s.runs++; return nil }

type fullSink struct {
	NopSink
	calls, appts int
}

func (f *fullSink) RecordAPICall(APICall) error              { f.calls++; return nil }
func (f *fullSink) RecordAppointment(AppointmentChange) error { f.appts++; return nil }

type failing struct{ NopSink }

func (failing) RecordStage(StageRun) error { return errors.New("boom") }

func TestMultiSinkForwardsOptionalRecorders(t *testing.T) {
	s1 := &stageOnly{}
	s2 := &fullSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordStage(StageRun{Stage: "routing"}); err != nil {
		t.Fatalf("record stage: %v", err)
	}
	if err := m.RecordAPICall(APICall{Service: "geocoder"}); err != nil {
		t.Fatalf("record call: %v", err)
	}
	if err := m.RecordAppointment(AppointmentChange{Action: "confirmed"}); err != nil {
		t.Fatalf("record appointment: %v", err)
	}
	if err := m.RecordProgress(Progress{Stage: "routing", Percent: 50}); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if s1.runs != 1 || s2.calls != 1 || s2.appts != 1 {
		t.Fatalf("records not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	after := &stageOnly{}
	m := NewMultiSink(failing{}, after)
	if err := m.RecordStage(StageRun{}); err == nil {
		t.Fatal("expected error")
	}
	if after.runs != 0 {
		t.Fatalf("sink after failure should not be called")
	}
}
