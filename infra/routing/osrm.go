// Package routing measures driving routes with an OSRM server, or estimates
// them from great-circle distance when no server is available.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fieldroute/auth"
	"github.com/kilianp07/fieldroute/core/distance"
	"github.com/kilianp07/fieldroute/core/factory"
	"github.com/kilianp07/fieldroute/core/model"
)

// ErrNoRoute is returned when the server finds no route between two points.
var ErrNoRoute = errors.New("no route found")

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "http://router.project-osrm.org"

// OSRMConfig configures the OSRM client.
type OSRMConfig struct {
	BaseURL        string    `json:"base_url"`
	Profile        string    `json:"profile"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Auth           auth.Conf `json:"auth"`
}

func init() {
	_ = distance.RegisterRouter("osrm", func(conf map[string]any) (distance.Router, error) {
		var c OSRMConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewOSRM(c), nil
	})
}

// OSRM implements distance.Router against the OSRM route service.
type OSRM struct {
	baseURL string
	profile string
	client  *http.Client
}

// NewOSRM builds a client for the driving profile of cfg.BaseURL.
func NewOSRM(cfg OSRMConfig) *OSRM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOSRMURL
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 15
	}
	return &OSRM{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		client:  auth.Client(cfg.Auth, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func coord(c model.Coordinates) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

// Route returns the fastest route from one point to the other.
func (o *OSRM) Route(ctx context.Context, from, to model.Coordinates) (distance.Leg, error) {
	u := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=false", o.baseURL, o.profile, coord(from), coord(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return distance.Leg{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return distance.Leg{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return distance.Leg{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var out routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return distance.Leg{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return distance.Leg{}, fmt.Errorf("%w: %s", ErrNoRoute, out.Code)
	}
	r := out.Routes[0]
	return distance.Leg{Minutes: r.Duration / 60, Km: r.Distance / 1000}, nil
}
