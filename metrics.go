package quadsim

import (
	"github.com/prometheus/client_golang/prometheus"
)

// schedulerMetrics are the three collectors a Simulator exposes, registered
// against a registry the Simulator itself owns rather than the global
// default registry, so multiple simulators in one process don't collide
// (SPEC_FULL.md §6a).
type schedulerMetrics struct {
	registry        *prometheus.Registry
	substeps        prometheus.Counter
	controllerTicks prometheus.Counter
	simulateDelta   prometheus.Histogram
}

func newSchedulerMetrics() *schedulerMetrics {
	registry := prometheus.NewRegistry()
	m := &schedulerMetrics{
		registry: registry,
		substeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quadsim_substeps_total",
			Help: "Total number of physics substeps executed.",
		}),
		controllerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quadsim_controller_ticks_total",
			Help: "Total number of controller ticks issued.",
		}),
		simulateDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quadsim_simulate_delta_seconds",
			Help:    "Wall-clock latency of one SimulateDelta call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(m.substeps, m.controllerTicks, m.simulateDelta)
	return m
}

// Registry exposes the Simulator-owned registry, e.g. for promhttp.HandlerFor
// in cmd/simulate.
func (s *Simulator) Registry() *prometheus.Registry {
	return s.metrics.registry
}
