package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity given to each subscriber when none
// is requested.
const DefaultBuffer = 8

// TypedBus fans events of type T out to subscriber channels.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// NewTyped creates a bus whose subscribers get buffer slots each. A buffer
// below one selects DefaultBuffer.
func NewTyped[T any](buffer int) *TypedBus[T] {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &TypedBus[T]{buffer: buffer}
}

// Publish offers e to every subscriber without blocking. Subscribers whose
// buffer is full miss the event and the drop is counted.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// PublishWait delivers e to every subscriber, waiting for buffer space until
// ctx is done. Subscribers not reached before then are counted as drops and
// ctx.Err() is returned.
func (b *TypedBus[T]) PublishWait(ctx context.Context, e T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for i, ch := range b.subs {
		select {
		case ch <- e:
		case <-ctx.Done():
			b.dropped.Add(uint64(len(b.subs) - i))
			return ctx.Err()
		}
	}
	return nil
}

// Dropped reports how many deliveries were skipped since the bus was created.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a subscriber. On a closed bus the returned channel is
// already closed.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes sub and closes it. Unknown channels are ignored.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel. Events still buffered stay
// readable, so consumers ranging over their channel drain them and exit.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
