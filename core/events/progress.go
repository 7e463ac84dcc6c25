package events

import "time"

// Stage names used in events and the run journal.
const (
	StageGeocoding  = "geocoding"
	StageRouting    = "routing"
	StageClustering = "clustering"
	StageCalendar   = "calendar"
	StageScheduling = "scheduling"
)

// ProgressEvent reports how far a stage has got. Percent spans the whole
// run, not just the stage.
type ProgressEvent struct {
	RunID   string
	Stage   string
	Done    int
	Total   int
	Percent float64
	Message string
	At      time.Time
}
