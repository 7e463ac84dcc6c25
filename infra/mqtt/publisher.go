package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/fieldroute/core/events"
	coremqtt "github.com/kilianp07/fieldroute/core/mqtt"
	"github.com/kilianp07/fieldroute/infra/logger"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

type progressMessage struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Done    int       `json:"done"`
	Total   int       `json:"total"`
	Percent float64   `json:"percent"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

type stageMessage struct {
	RunID      string  `json:"run_id"`
	Project    string  `json:"project"`
	Stage      string  `json:"stage"`
	Items      int     `json:"items"`
	Failures   int     `json:"failures"`
	DurationMS int64   `json:"duration_ms"`
	Error      *string `json:"error"`
}

type appointmentMessage struct {
	Project  string `json:"project"`
	Postcode string `json:"postcode,omitempty"`
	Region   int    `json:"region"`
	Date     string `json:"date,omitempty"`
	Start    string `json:"start,omitempty"`
	Action   string `json:"action"`
}

// ProgressPublisher mirrors pipeline events to MQTT topics under prefix:
//
//	<prefix>/progress/<stage>
//	<prefix>/stage/<stage>
//	<prefix>/appointments
type ProgressPublisher struct {
	pub    coremqtt.Publisher
	prefix string
	log    logger.Logger
}

// NewProgressPublisher wraps pub.
func NewProgressPublisher(pub coremqtt.Publisher, prefix string) *ProgressPublisher {
	if prefix == "" {
		prefix = "fieldroute"
	}
	return &ProgressPublisher{pub: pub, prefix: prefix, log: logger.New("mqtt_progress")}
}

// Start subscribes to bus and publishes until ctx is done or the bus closes.
// The returned channel is closed once the subscription has drained.
func (p *ProgressPublisher) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := p.Handle(ev); err != nil {
					p.log.Warnf("publish event: %v", err)
				}
			}
		}
	}()
	return done
}

// Handle publishes one event. Unknown events are ignored.
func (p *ProgressPublisher) Handle(ev eventbus.Event) error {
	var (
		topic string
		body  any
	)
	switch e := ev.(type) {
	case events.ProgressEvent:
		topic = p.prefix + "/progress/" + e.Stage
		body = progressMessage{RunID: e.RunID, Stage: e.Stage, Done: e.Done, Total: e.Total, Percent: e.Percent, Message: e.Message, At: e.At}
	case events.StageEvent:
		msg := stageMessage{RunID: e.RunID, Project: e.Project, Stage: e.Stage, Items: e.Items, Failures: e.Failures, DurationMS: e.Duration.Milliseconds()}
		if e.Err != nil {
			s := e.Err.Error()
			msg.Error = &s
		}
		topic, body = p.prefix+"/stage/"+e.Stage, msg
	case events.AppointmentEvent:
		topic = p.prefix + "/appointments"
		msg := appointmentMessage{Project: e.Project, Postcode: e.Postcode, Region: e.Region, Start: e.Start, Action: e.Action}
		if !e.Date.IsZero() {
			msg.Date = e.Date.Format("2006-01-02")
		}
		body = msg
	default:
		return nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return p.pub.Publish(topic, payload)
}
