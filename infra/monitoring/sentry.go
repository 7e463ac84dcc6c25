// Package monitoring reports pipeline failures to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/fieldroute/config"
	coremon "github.com/kilianp07/fieldroute/core/monitoring"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a NopMonitor.
// version is used as the release when the configuration leaves it blank.
func NewSentryMonitor(cfg config.SentryConfig, version string) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	release := cfg.Release
	if release == "" && version != "" {
		release = "fieldroute@" + version
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{hub: sentry.CurrentHub()}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

// CaptureException reports err. The "stage" and "project" tags are
// promoted to the event fingerprint so failures group per stage.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if stage, ok := tags["stage"]; ok {
			scope.SetFingerprint([]string{"{{ default }}", stage})
		}
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) CapturePanic(v any) { s.hub.Recover(v) }

func (s *sentryMonitor) Breadcrumb(category, message string) {
	s.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
