// Package monitoring is the error-reporting hook of the pipeline. Stages
// report failures through the package functions, which forward to the
// Monitor installed by Init.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// CapturePanic reports a recovered panic value.
	CapturePanic(v any)
	// Breadcrumb records a step attached to later reports.
	Breadcrumb(category, message string)
	Flush(timeout time.Duration)
}

// NopMonitor reports nothing.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Breadcrumb(string, string)                 {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init installs m. A nil m restores the NopMonitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// CaptureException reports err with optional tags. A nil err is ignored.
func CaptureException(err error, tags map[string]string) {
	if err != nil {
		get().CaptureException(err, tags)
	}
}

// Breadcrumb records a pipeline step.
func Breadcrumb(category, message string) { get().Breadcrumb(category, message) }

// Flush waits up to d for pending reports.
func Flush(d time.Duration) { get().Flush(d) }

// Go runs fn in a goroutine. A panic in fn is reported and flushed, then
// re-raised.
func Go(fn func()) {
	go func() {
		defer Repanic()
		fn()
	}()
}

// Repanic must be deferred directly. It reports a panic in progress, flushes
// and panics again with the same value.
func Repanic() {
	if r := recover(); r != nil {
		m := get()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}
