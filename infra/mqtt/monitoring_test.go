package mqtt

import (
	"errors"
	"fmt"
	"testing"
	"time"

	coremon "github.com/kilianp07/fieldroute/core/monitoring"
	coremqtt "github.com/kilianp07/fieldroute/core/mqtt"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any)          {}
func (r *recordMonitor) Breadcrumb(string, string) {}
func (r *recordMonitor) Flush(time.Duration)       {}

func TestPublishErrorCaptured(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cli.sleep = func(time.Duration) {}
	mc.publishErrs = []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}
	err = cli.Publish("fieldroute/progress/routing", []byte("{}"))
	if !errors.Is(err, coremqtt.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["topic"] != "fieldroute/progress/routing" || mon.tags["module"] != "mqtt" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}
