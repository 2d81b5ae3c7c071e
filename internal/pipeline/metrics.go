package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the dispatcher's own operational counters, following the
// same promauto-per-owner pattern as internal/health.Metrics.
type Metrics struct {
	TicksRun    *prometheus.CounterVec
	TicksFailed *prometheus.CounterVec
}

// NewMetrics registers the dispatcher's counters against the default
// registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers against an arbitrary registerer, so tests can use
// a throwaway registry instead of colliding on the global one.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksRun: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_agent_pipeline_ticks_total",
			Help: "Total number of pipeline ticks started, by kind.",
		}, []string{"kind"}),
		TicksFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_agent_pipeline_ticks_failed_total",
			Help: "Total number of pipeline ticks that ended in an enqueued error, by kind.",
		}, []string{"kind"}),
	}
}
