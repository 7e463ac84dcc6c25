package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldroute/auth"
	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/factory"
	"github.com/kilianp07/fieldroute/core/model"
)

func TestOSRMRoute(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		if r.URL.Path == "/route/v1/driving/0,0;1,1" {
			_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"duration":1830,"distance":24500}]}`))
	}))
	defer srv.Close()

	r := NewOSRM(OSRMConfig{BaseURL: srv.URL})
	leg, err := r.Route(context.Background(), model.Coordinates{Latitude: 51.5, Longitude: -0.12}, model.Coordinates{Latitude: 51.45, Longitude: -0.2})
	require.NoError(t, err)
	assert.Equal(t, "/route/v1/driving/-0.12,51.5;-0.2,51.45", gotPath)
	assert.Equal(t, "overview=false", gotQuery)
	assert.Equal(t, 30.5, leg.Minutes)
	assert.Equal(t, 24.5, leg.Km)

	_, err = r.Route(context.Background(), model.Coordinates{}, model.Coordinates{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestOSRMStatusError(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get(auth.DefaultAPIKeyHeader)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err := NewOSRM(OSRMConfig{BaseURL: srv.URL, Auth: auth.Conf{APIKey: "k"}}).Route(context.Background(), model.Coordinates{}, model.Coordinates{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, "k", key)
}

func TestEstimatorFactory(t *testing.T) {
	r, err := distance.NewRouter(factory.ModuleConfig{Type: "haversine", Conf: map[string]any{"speed_kmh": 60.0, "road_factor": 1.0}})
	require.NoError(t, err)
	// One degree of latitude is about 111.19 km.
	leg, err := r.Route(context.Background(), model.Coordinates{Latitude: 0}, model.Coordinates{Latitude: 1})
	require.NoError(t, err)
	assert.InDelta(t, 111.19, leg.Km, 0.01)
	assert.InDelta(t, 111.19, leg.Minutes, 0.01)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewEstimator(0, 0).Route(ctx, model.Coordinates{}, model.Coordinates{})
	assert.ErrorIs(t, err, context.Canceled)
}
