package metrics

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStage forwards the run to all sinks, returning the first error encountered.
func (m *MultiSink) RecordStage(run StageRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordStage(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordAPICall forwards API calls.
func (m *MultiSink) RecordAPICall(call APICall) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(APICallRecorder); ok {
			if err := rec.RecordAPICall(call); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordClusterQuality forwards clustering quality.
func (m *MultiSink) RecordClusterQuality(balance float64, regions []RegionQuality) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ClusterRecorder); ok {
			if err := rec.RecordClusterQuality(balance, regions); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAppointment forwards scheduler mutations.
func (m *MultiSink) RecordAppointment(ev AppointmentChange) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(AppointmentRecorder); ok {
			if err := rec.RecordAppointment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordProgress forwards progress samples.
func (m *MultiSink) RecordProgress(p Progress) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ProgressRecorder); ok {
			if err := rec.RecordProgress(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the sinks that hold a client.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
