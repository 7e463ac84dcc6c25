package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fieldroute/core/metrics"
	"github.com/kilianp07/fieldroute/infra/logger"
)

// InfluxConfig locates an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes pipeline events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing database never stops a
// planning run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStage writes a stage_run point.
func (s *InfluxSink) RecordStage(run coremetrics.StageRun) error {
	p := write.NewPointWithMeasurement("stage_run").
		AddTag("stage", run.Stage).
		AddTag("run_id", run.RunID)
	if run.Project != "" {
		p = p.AddTag("project", run.Project)
	}
	p = p.AddField("items", run.Items).
		AddField("failures", run.Failures).
		AddField("duration_s", round3(run.Duration.Seconds())).
		AddField("error", run.Err).
		SetTime(stamp(run.Time))
	return s.write(p)
}

// RecordAPICall writes an api_call point.
func (s *InfluxSink) RecordAPICall(call coremetrics.APICall) error {
	p := write.NewPointWithMeasurement("api_call").
		AddTag("service", call.Service).
		AddTag("success", strconv.FormatBool(call.Success)).
		AddField("latency_ms", round3(call.Latency.Seconds()*1000)).
		SetTime(stamp(call.Time))
	return s.write(p)
}

// RecordClusterQuality writes one region_quality point per region.
func (s *InfluxSink) RecordClusterQuality(balanceRatio float64, regions []coremetrics.RegionQuality) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range regions {
		p := write.NewPointWithMeasurement("region_quality").
			AddTag("project", r.Project).
			AddTag("region", strconv.Itoa(r.Region)).
			AddField("customers", r.Customers).
			AddField("driving_minutes", round3(r.TotalMinutes)).
			AddField("minimum_days", r.MinimumDays).
			AddField("balance_ratio", round3(balanceRatio)).
			SetTime(stamp(r.Time))
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordAppointment writes an appointment_change point.
func (s *InfluxSink) RecordAppointment(ev coremetrics.AppointmentChange) error {
	p := write.NewPointWithMeasurement("appointment_change").
		AddTag("project", ev.Project).
		AddTag("action", ev.Action).
		AddTag("postcode", ev.Postcode).
		AddField("region", ev.Region).
		AddField("conflicts", ev.Conflicts).
		SetTime(stamp(ev.Time))
	return s.write(p)
}

func round3(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return math.Round(f*1000) / 1000
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
