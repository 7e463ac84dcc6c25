// Package geocode resolves postcodes to coordinates through postcodes.io or
// a compatible service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/fieldroute/auth"
	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/factory"
	"github.com/kilianp07/fieldroute/core/model"
)

// ErrNotFound is returned for postcodes the service does not know.
var ErrNotFound = errors.New("postcode not found")

// DefaultBaseURL is the public postcodes.io endpoint.
const DefaultBaseURL = "https://api.postcodes.io"

// Config configures the postcodes.io client.
type Config struct {
	BaseURL        string    `json:"base_url"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Auth           auth.Conf `json:"auth"`
}

func init() {
	_ = distance.RegisterGeocoder("postcodes_io", func(conf map[string]any) (distance.Geocoder, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPostcodesIO(c), nil
	})
}

// PostcodesIO implements distance.Geocoder.
type PostcodesIO struct {
	baseURL string
	client  *http.Client
}

// NewPostcodesIO builds a client, defaulting to the public endpoint.
func NewPostcodesIO(cfg Config) *PostcodesIO {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return &PostcodesIO{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  auth.Client(cfg.Auth, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

type lookupResponse struct {
	Status int `json:"status"`
	Result *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
	Error string `json:"error"`
}

// Geocode looks up a single postcode. Inner spaces are removed before the
// request.
func (p *PostcodesIO) Geocode(ctx context.Context, postcode string) (model.Coordinates, error) {
	pc := model.CompactPostcode(postcode)
	if pc == "" {
		return model.Coordinates{}, fmt.Errorf("%w: empty postcode", ErrNotFound)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/postcodes/"+url.PathEscape(pc), nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, pc)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Coordinates{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Coordinates{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Result == nil || out.Result.Latitude == nil || out.Result.Longitude == nil {
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrNotFound, pc)
	}
	return model.Coordinates{Latitude: *out.Result.Latitude, Longitude: *out.Result.Longitude}, nil
}
