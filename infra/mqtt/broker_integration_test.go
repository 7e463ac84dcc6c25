//go:build integration

package mqtt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/fieldroute/core/events"
	"github.com/kilianp07/fieldroute/internal/eventbus"
)

func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte("listener 1883\nallow_anonymous true\n"), 0o644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("container start: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestProgressReachesBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker := startMosquitto(ctx, t)

	got := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("watcher"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("watcher connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("fieldroute/progress/#", 1, func(_ paho.Client, m paho.Message) {
		select {
		case got <- m.Payload():
		default:
		}
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cli, err := NewPahoClient(Config{Broker: broker, QoS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer cli.Disconnect()

	bus := eventbus.New()
	NewProgressPublisher(cli, "fieldroute").Start(ctx, bus)
	bus.Publish(events.ProgressEvent{RunID: "r1", Stage: events.StageRouting, Percent: 42})

	select {
	case payload := <-got:
		if len(payload) == 0 {
			t.Fatal("empty payload")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("progress message not received")
	}
}
