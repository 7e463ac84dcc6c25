package metrics

import "time"

// StageRun describes one execution of a pipeline stage.
type StageRun struct {
	RunID    string
	Project  string
	Stage    string
	Items    int
	Failures int
	Duration time.Duration
	Err      string
	Time     time.Time
}

// MetricsSink records stage runs for observability purposes.
type MetricsSink interface {
	RecordStage(run StageRun) error
}

// APICall captures a request made to a geocoding or routing service.
type APICall struct {
	Service string
	Success bool
	Latency time.Duration
	Time    time.Time
}

// APICallRecorder records external API calls.
type APICallRecorder interface {
	RecordAPICall(call APICall) error
}

// RegionQuality is the clustering outcome of one region.
type RegionQuality struct {
	Project      string
	Region       int
	Customers    int
	TotalMinutes float64
	MinimumDays  int
	Time         time.Time
}

// ClusterRecorder records the quality of a clustering run.
type ClusterRecorder interface {
	RecordClusterQuality(balanceRatio float64, regions []RegionQuality) error
}

// AppointmentChange records a scheduler mutation.
type AppointmentChange struct {
	Project   string
	Postcode  string
	Region    int
	Action    string
	Conflicts int
	Time      time.Time
}

// AppointmentRecorder records scheduler mutations.
type AppointmentRecorder interface {
	RecordAppointment(ev AppointmentChange) error
}

// Progress is a point-in-time progress sample.
type Progress struct {
	Stage   string
	Percent float64
}

// ProgressRecorder records stage progress.
type ProgressRecorder interface {
	RecordProgress(p Progress) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordStage(StageRun) error                          { return nil }
func (NopSink) RecordAPICall(APICall) error                         { return nil }
func (NopSink) RecordClusterQuality(float64, []RegionQuality) error { return nil }
func (NopSink) RecordAppointment(AppointmentChange) error           { return nil }
func (NopSink) RecordProgress(Progress) error                       { return nil }
