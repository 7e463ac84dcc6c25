package metrics

import (
	"fmt"

	"github.com/kilianp07/fieldroute/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]("metrics sink")

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the configured sinks. No configuration, or only
// "nop" entries, yields a NopSink; several sinks are combined in a
// MultiSink. Sinks already built are closed when a later one fails.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	var sinks []MetricsSink
	for i, c := range cfgs {
		if c.Type == "nop" {
			continue
		}
		s, err := sinkRegistry.Create(c)
		if err != nil {
			NewMultiSink(sinks...).Close()
			return nil, fmt.Errorf("metrics.sinks[%d]: %w", i, err)
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
