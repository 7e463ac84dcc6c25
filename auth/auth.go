// Package auth authorises requests to third-party geocoding and routing
// services.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials adds an OAuth2 bearer token or an API key header to requests.
type Credentials struct {
	conf   *clientcredentials.Config
	apiKey string
	header string

	mu    sync.Mutex
	token *oauth2.Token
}

// New returns nil when conf is not enabled, so callers can treat a nil
// *Credentials as anonymous access.
func New(conf Conf) *Credentials {
	switch {
	case conf.OAuth2():
		return &Credentials{conf: conf.toOauth2Config()}
	case conf.APIKey != "":
		h := conf.APIKeyHeader
		if h == "" {
			h = DefaultAPIKeyHeader
		}
		return &Credentials{apiKey: conf.APIKey, header: h}
	default:
		return nil
	}
}

// Token returns the cached access token, fetching a new one when it has
// expired.
func (c *Credentials) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token, nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok, nil
}

// Invalidate drops the cached token.
func (c *Credentials) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// Authorize sets the credential header on r. A nil receiver leaves r
// untouched.
func (c *Credentials) Authorize(r *http.Request) error {
	switch {
	case c == nil:
		return nil
	case c.conf == nil:
		r.Header.Set(c.header, c.apiKey)
		return nil
	}
	tok, err := c.Token(r.Context())
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}

// Transport authorises every request. A 401 answer to an OAuth2 request
// drops the cached token and the request is retried once with a new one.
type Transport struct {
	Creds *Credentials
	Base  http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.send(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.Creds == nil || t.Creds.conf == nil {
		return resp, err
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	resp.Body.Close()
	t.Creds.Invalidate()
	return t.send(req)
}

func (t *Transport) send(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	if err := t.Creds.Authorize(r); err != nil {
		return nil, err
	}
	return t.base().RoundTrip(r)
}

// Client returns an HTTP client with timeout that authorises its requests
// with conf.
func Client(conf Conf, timeout time.Duration) *http.Client {
	c := &http.Client{Timeout: timeout}
	if creds := New(conf); creds != nil {
		c.Transport = &Transport{Creds: creds}
	}
	return c
}
