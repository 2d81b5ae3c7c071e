package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the heartbeat's own operational gauges: promauto-registered
// collectors owned by the component that updates them.
type Metrics struct {
	QueueDepth    prometheus.Gauge
	HeartbeatsSent prometheus.Counter
}

// NewMetrics registers the heartbeat's gauges against the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers against an arbitrary registerer, so tests can
// use a throwaway registry instead of colliding on the global one.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_agent_error_queue_depth",
			Help: "Number of error records currently queued awaiting the next heartbeat drain.",
		}),
		HeartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "db_agent_heartbeats_sent_total",
			Help: "Total number of heartbeat payloads shipped, regardless of outcome.",
		}),
	}
}
