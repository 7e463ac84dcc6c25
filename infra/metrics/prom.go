package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
)

// PromSink records pipeline activity in Prometheus metrics.
type PromSink struct {
	stages       *prometheus.CounterVec
	stageTime    *prometheus.HistogramVec
	stageItems   *prometheus.GaugeVec
	apiCalls     *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	customers    *prometheus.GaugeVec
	regionTime   *prometheus.GaugeVec
	balance      prometheus.Gauge
	appointments *prometheus.CounterVec
	progress     *prometheus.GaugeVec
}

// NewPromSink registers pipeline metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.stages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldroute_stage_runs_total",
		Help: "Total number of pipeline stage runs",
	}, []string{"stage", "success"})); err != nil {
		return nil, err
	}
	if s.stageTime, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldroute_stage_duration_seconds",
		Help:    "Wall time of pipeline stage runs",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900, 3600},
	}, []string{"stage"})); err != nil {
		return nil, err
	}
	if s.stageItems, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldroute_stage_items",
		Help: "Items processed by the last run of a stage",
	}, []string{"stage", "outcome"})); err != nil {
		return nil, err
	}
	if s.apiCalls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldroute_api_calls_total",
		Help: "Requests made to geocoding and routing services",
	}, []string{"service", "success"})); err != nil {
		return nil, err
	}
	if s.apiLatency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldroute_api_latency_seconds",
		Help:    "Latency of geocoding and routing requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})); err != nil {
		return nil, err
	}
	if s.customers, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldroute_region_customers",
		Help: "Customers per region after the last clustering run",
	}, []string{"project", "region"})); err != nil {
		return nil, err
	}
	if s.regionTime, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldroute_region_driving_minutes",
		Help: "Sum of pairwise driving minutes inside a region",
	}, []string{"project", "region"})); err != nil {
		return nil, err
	}
	if s.balance, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fieldroute_cluster_balance_ratio",
		Help: "Largest over smallest region driving time of the last clustering run",
	})); err != nil {
		return nil, err
	}
	if s.appointments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldroute_appointments_total",
		Help: "Scheduler mutations by action",
	}, []string{"action"})); err != nil {
		return nil, err
	}
	if s.progress, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldroute_progress_percent",
		Help: "Progress of the running stage",
	}, []string{"stage"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStage counts the run and observes its duration.
func (s *PromSink) RecordStage(run coremetrics.StageRun) error {
	s.stages.WithLabelValues(run.Stage, strconv.FormatBool(run.Err == "")).Inc()
	s.stageTime.WithLabelValues(run.Stage).Observe(run.Duration.Seconds())
	s.stageItems.WithLabelValues(run.Stage, "ok").Set(float64(run.Items - run.Failures))
	s.stageItems.WithLabelValues(run.Stage, "failed").Set(float64(run.Failures))
	return nil
}

// RecordAPICall counts a geocoding or routing request.
func (s *PromSink) RecordAPICall(call coremetrics.APICall) error {
	s.apiCalls.WithLabelValues(call.Service, strconv.FormatBool(call.Success)).Inc()
	s.apiLatency.WithLabelValues(call.Service).Observe(call.Latency.Seconds())
	return nil
}

// RecordClusterQuality replaces the per-region gauges of the project.
func (s *PromSink) RecordClusterQuality(balanceRatio float64, regions []coremetrics.RegionQuality) error {
	s.balance.Set(balanceRatio)
	for _, r := range regions {
		region := strconv.Itoa(r.Region)
		s.customers.WithLabelValues(r.Project, region).Set(float64(r.Customers))
		s.regionTime.WithLabelValues(r.Project, region).Set(r.TotalMinutes)
	}
	return nil
}

// RecordAppointment counts a scheduler mutation.
func (s *PromSink) RecordAppointment(ev coremetrics.AppointmentChange) error {
	s.appointments.WithLabelValues(ev.Action).Inc()
	return nil
}

// RecordProgress sets the progress gauge of the stage.
func (s *PromSink) RecordProgress(p coremetrics.Progress) error {
	s.progress.WithLabelValues(p.Stage).Set(p.Percent)
	return nil
}
