// Package metrics defines the sinks that observe planning runs. A sink
// always records stage runs; the optional recorder interfaces cover API
// calls, clustering quality, appointment changes and progress. Sinks are
// built from configuration through a factory registry and combined with
// NewMultiSink when several are configured.
package metrics
