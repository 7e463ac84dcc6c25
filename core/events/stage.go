package events

import "time"

// StageEvent is published once a stage completes, successfully or not.
type StageEvent struct {
	RunID    string
	Project  string
	Stage    string
	Items    int
	Failures int
	Duration time.Duration
	Err      error
}

// AppointmentEvent is emitted when the scheduler confirms or removes a visit.
// Action is "confirmed", "removed" or "cleared"; a cleared event names the
// region only.
type AppointmentEvent struct {
	Project  string
	Postcode string
	Region   int
	Date     time.Time
	Start    string
	Action   string
}
