// Package eventbus carries pipeline events between the stages that emit
// them and the consumers that log, journal, publish or export them.
package eventbus

import "context"

// Event is any value published on the bus.
type Event any

// EventBus is the untyped bus shared by the pipeline.
//
// Publish may drop events for slow subscribers and suits progress updates.
// PublishWait is used for events that must reach every consumer, such as
// stage outcomes recorded in the journal.
type EventBus interface {
	Publish(Event)
	PublishWait(context.Context, Event) error
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Dropped() uint64
	Close()
}

// Bus is the default EventBus.
type Bus struct {
	*TypedBus[Event]
}

// New creates a Bus with DefaultBuffer slots per subscriber.
func New() *Bus { return &Bus{NewTyped[Event](DefaultBuffer)} }

// NewWithBuffer creates a Bus with buffer slots per subscriber.
func NewWithBuffer(buffer int) *Bus { return &Bus{NewTyped[Event](buffer)} }
