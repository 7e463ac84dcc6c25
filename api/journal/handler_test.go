package journal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corejournal "github.com/kilianp07/fieldroute/core/journal"
)

type memStore struct {
	recs []corejournal.Record
	last corejournal.Query
	err  error
}

func (m *memStore) Query(_ context.Context, q corejournal.Query) ([]corejournal.Record, error) {
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	var out []corejournal.Record
	for _, r := range m.recs {
		if q.Project != "" && r.Project != q.Project {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func TestHandlerAuthAndFilters(t *testing.T) {
	store := &memStore{recs: []corejournal.Record{
		{ID: "1", Project: "north", Kind: corejournal.KindStage, Stage: "routing"},
		{ID: "2", Project: "south", Kind: corejournal.KindStage, Stage: "routing"},
	}}
	h := NewHandler(store, "tok")

	req := httptest.NewRequest(http.MethodGet, "/api/journal?project=north", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/journal?project=north&stage=routing&limit=5&start=2024-03-04T08:00:00Z", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got []corejournal.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "routing", store.last.Stage)
	assert.Equal(t, 5, store.last.Limit)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), store.last.Start)
}

func TestHandlerRejectsWrongToken(t *testing.T) {
	h := NewHandler(&memStore{}, "tok")
	for _, header := range []string{"Bearer tik", "Bearer tok2", "tok"} {
		req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
	}
}

func TestHandlerRejectsBadParams(t *testing.T) {
	h := NewHandler(&memStore{}, "")
	for _, target := range []string{"/api/journal?start=yesterday", "/api/journal?limit=-1"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/journal", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandlerEmptyAndFailingStore(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHandler(&memStore{}, "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/journal", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = httptest.NewRecorder()
	NewHandler(&memStore{err: errors.New("disk gone")}, "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/journal", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
