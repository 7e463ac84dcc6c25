// Package journal keeps a history of pipeline runs and scheduler changes.
package journal

import (
	"context"
	"time"
)

// Kinds of journal entries.
const (
	KindStage       = "stage"
	KindAppointment = "appointment"
)

// Record is one journal entry.
type Record struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Kind       string            `json:"kind"`
	RunID      string            `json:"run_id,omitempty"`
	Project    string            `json:"project"`
	Stage      string            `json:"stage"`
	Items      int               `json:"items"`
	Failures   int               `json:"failures"`
	DurationMS int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Query filters records. Zero fields match everything; Limit keeps the most
// recent matches.
type Query struct {
	Start   time.Time
	End     time.Time
	Project string
	Stage   string
	Kind    string
	RunID   string
	Limit   int
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Project != "" && r.Project != q.Project {
		return false
	}
	if q.Stage != "" && r.Stage != q.Stage {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return q.RunID == "" || r.RunID == q.RunID
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
