// Package journal serves the run journal over HTTP.
package journal

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	corejournal "github.com/kilianp07/fieldroute/core/journal"
)

// Querier reads journal records.
type Querier interface {
	Query(ctx context.Context, q corejournal.Query) ([]corejournal.Record, error)
}

// NewHandler returns an HTTP handler exposing the journal via GET
// /api/journal. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
//
// Supported query parameters: project, stage, kind, run_id, start and end
// (RFC 3339) and limit.
func NewHandler(store Querier, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte("Bearer "+token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		params := r.URL.Query()
		q := corejournal.Query{
			Project: params.Get("project"),
			Stage:   params.Get("stage"),
			Kind:    params.Get("kind"),
			RunID:   params.Get("run_id"),
		}
		var err error
		if q.Start, err = parseTime(params.Get("start")); err != nil {
			http.Error(w, "invalid start: "+err.Error(), http.StatusBadRequest)
			return
		}
		if q.End, err = parseTime(params.Get("end")); err != nil {
			http.Error(w, "invalid end: "+err.Error(), http.StatusBadRequest)
			return
		}
		if s := params.Get("limit"); s != "" {
			if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []corejournal.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
