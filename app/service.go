// Package app wires the pipeline stages to the project files, the event
// bus and the observability sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kilianp07/fieldroute/config"
	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/core/journal"
	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
	coremon "github.com/kilianp07/fieldroute/core/monitoring"
	"github.com/kilianp07/fieldroute/core/project"
	"github.com/kilianp07/fieldroute/infra/csvstore"
	"github.com/kilianp07/fieldroute/infra/logger"
	"github.com/kilianp07/fieldroute/infra/metrics"
	"github.com/kilianp07/fieldroute/infra/monitoring"
	"github.com/kilianp07/fieldroute/infra/mqtt"
	"github.com/kilianp07/fieldroute/internal/eventbus"

	// geocoder and router factories
	_ "github.com/kilianp07/fieldroute/infra/geocode"
	_ "github.com/kilianp07/fieldroute/infra/routing"
)

const publishTimeout = 2 * time.Second

// Version is reported to Sentry as the release.
var Version = "dev"

// Service gives the CLI access to the projects and runs the stages.
type Service struct {
	Launcher *project.Launcher

	cfg     *config.Config
	bus     eventbus.EventBus
	sink    coremetrics.MetricsSink
	journal journal.Store
	mqtt    *mqtt.PahoClient
	log     logger.Logger
	cancel  context.CancelFunc
	done    []<-chan struct{}
	now     func() time.Time
}

// New creates a Service from the configuration. Background consumers of
// the event bus run until Close.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry, Version)
	if err != nil {
		logg.Warnf("sentry disabled: %v", err)
		mon = coremon.NopMonitor{}
	}
	coremon.Init(mon)

	launcher, err := project.LoadLauncher(cfg.LauncherPath, logger.New("launcher"))
	if err != nil {
		return nil, fmt.Errorf("launcher: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		Launcher: launcher,
		cfg:      cfg,
		bus:      eventbus.New(),
		sink:     sink,
		journal:  store,
		log:      logg,
		cancel:   cancel,
		now:      time.Now,
	}
	s.done = append(s.done,
		journal.StartRecorder(ctx, s.bus, store, logger.New("journal")),
		metrics.StartEventCollector(ctx, s.bus, sink),
	)
	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			// progress streaming is optional
			logg.Warnf("mqtt disabled: %v", err)
		} else {
			s.mqtt = client
			pub := mqtt.NewProgressPublisher(client, cfg.MQTT.TopicPrefix)
			s.done = append(s.done, pub.Start(ctx, s.bus))
		}
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		coremon.Go(func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				logg.Errorf("prom server: %v", err)
			}
		})
	}
	return s, nil
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Bus returns the event bus the stages publish on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// History queries the run journal.
func (s *Service) History(ctx context.Context, q journal.Query) ([]journal.Record, error) {
	return s.journal.Query(ctx, q)
}

// Journal returns the run journal store.
func (s *Service) Journal() journal.Store { return s.journal }

// Close drains the event consumers and releases the sinks.
func (s *Service) Close() error {
	s.bus.Close()
	for _, d := range s.done {
		<-d
	}
	s.cancel()
	if n := s.bus.Dropped(); n > 0 {
		s.log.Debugf("%d event deliveries dropped", n)
	}
	var errs []error
	if err := s.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("journal: %w", err))
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	coremon.Flush(2 * time.Second)
	if err := logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("log file: %w", err))
	}
	return errors.Join(errs...)
}

// Workspace is an opened project directory.
type Workspace struct {
	Name  string
	Store *csvstore.Store

	prefs *project.Preferences
}

// Workspace opens the named project, or the active one when name is empty.
func (s *Service) Workspace(name string) (*Workspace, error) {
	var dir string
	if name == "" {
		d, err := s.Launcher.ActiveDir()
		if err != nil {
			return nil, err
		}
		dir = d
	} else {
		dir = s.Launcher.Dir(name)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("%w: %s", project.ErrNotFound, name)
		}
	}
	return &Workspace{Name: filepath.Base(dir), Store: csvstore.New(dir)}, nil
}

// Prefs loads the display preference of the project on first use.
func (w *Workspace) Prefs() *project.Preferences {
	if w.prefs == nil {
		w.prefs = project.LoadPreferences(w.Store.Dir(), w.Logger("prefs"))
	}
	return w.prefs
}

// Logger returns a component logger tagged with the project name.
func (w *Workspace) Logger(component string) logger.Logger {
	return logger.New(component).With(map[string]any{"project": w.Name})
}

// Status reports the workflow progress of the project.
func (w *Workspace) Status() []project.Task { return project.Status(w.Store) }

// finishStage publishes the stage outcome and reports failures.
func (s *Service) finishStage(ws *Workspace, stage, runID string, start time.Time, items, failures int, err error) {
	s.publish(events.StageEvent{
		RunID:    runID,
		Project:  ws.Name,
		Stage:    stage,
		Items:    items,
		Failures: failures,
		Duration: s.now().Sub(start),
		Err:      err,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		coremon.CaptureException(err, map[string]string{"stage": stage, "project": ws.Name})
		return
	}
	coremon.Breadcrumb("stage", fmt.Sprintf("%s %s: %d items, %d failures", ws.Name, stage, items, failures))
}

// publish delivers ev to every consumer, giving slow ones a short grace
// period so journal and metrics records are not lost.
func (s *Service) publish(ev eventbus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.bus.PublishWait(ctx, ev); err != nil {
		s.log.Warnf("event %T not delivered to every consumer: %v", ev, err)
	}
}
