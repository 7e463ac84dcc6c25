package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBusFanOut(t *testing.T) {
	bus := New()
	a, b := bus.Subscribe(), bus.Subscribe()
	bus.Publish("geocoding")
	if v := <-a; v != "geocoding" {
		t.Fatalf("a got %v", v)
	}
	if v := <-b; v != "geocoding" {
		t.Fatalf("b got %v", v)
	}
	bus.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatalf("expected a closed after unsubscribe")
	}
	bus.Unsubscribe(a)
}

func TestBusCountsDrops(t *testing.T) {
	bus := NewWithBuffer(2)
	sub := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	if d := bus.Dropped(); d != 3 {
		t.Fatalf("dropped = %d, want 3", d)
	}
	if v := <-sub; v != 0 {
		t.Fatalf("first event = %v", v)
	}
}

func TestBusCloseKeepsBufferedEvents(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Publish("routing")
	bus.Close()
	bus.Close()
	var got []Event
	for ev := range sub {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0] != "routing" {
		t.Fatalf("drained %v", got)
	}
	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("expected closed channel after Close")
	}
	bus.Publish("ignored")
	bus.Unsubscribe(sub)
}

func TestPublishWaitBlocksUntilRead(t *testing.T) {
	bus := NewWithBuffer(1)
	sub := bus.Subscribe()
	bus.Publish("progress")

	done := make(chan error, 1)
	go func() { done <- bus.PublishWait(context.Background(), "stage") }()
	select {
	case <-done:
		t.Fatalf("PublishWait returned with a full buffer")
	case <-time.After(20 * time.Millisecond):
	}
	<-sub
	if err := <-done; err != nil {
		t.Fatalf("PublishWait: %v", err)
	}
	if v := <-sub; v != "stage" {
		t.Fatalf("got %v", v)
	}
}

func TestPublishWaitTimeout(t *testing.T) {
	bus := NewWithBuffer(1)
	bus.Subscribe()
	bus.Subscribe()
	bus.Publish("fill")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := bus.PublishWait(ctx, "stage"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if d := bus.Dropped(); d != 2 {
		t.Fatalf("dropped = %d, want 2", d)
	}
}
