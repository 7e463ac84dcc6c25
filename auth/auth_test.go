package auth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_, _ = w.Write([]byte(`{"access_token":"stale","token_type":"bearer","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRefreshesRevokedToken(t *testing.T) {
	var tokens, calls int32
	tokSrv := tokenServer(t, &tokens)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(api.Close)

	client := Client(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: tokSrv.URL}, time.Second)
	resp, err := client.Get(api.URL + "/route")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokens))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	resp, err = client.Get(api.URL + "/route")
	require.NoError(t, err)
	resp.Body.Close()
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokens), "token is cached")
}

func TestAPIKeyHeader(t *testing.T) {
	creds := New(Conf{APIKey: "k1"})
	require.NotNil(t, creds)
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, creds.Authorize(req))
	assert.Equal(t, "k1", req.Header.Get(DefaultAPIKeyHeader))

	creds = New(Conf{APIKey: "k2", APIKeyHeader: "Ocp-Apim-Subscription-Key"})
	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, creds.Authorize(req))
	assert.Equal(t, "k2", req.Header.Get("Ocp-Apim-Subscription-Key"))
}

func TestDisabledCredentials(t *testing.T) {
	assert.Nil(t, New(Conf{}))
	var creds *Credentials
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, creds.Authorize(req))
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Nil(t, Client(Conf{}, time.Second).Transport)
}
