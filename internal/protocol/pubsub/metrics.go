package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 发布订阅指标
type Metrics struct {
	Published    *prometheus.CounterVec
	Unrecognized prometheus.Counter
	Missed       prometheus.Counter
	Subscribers  prometheus.Gauge
	Queued       prometheus.Gauge
}

// NewMetrics 创建并注册指标
//
// reg 为 nil 时使用私有 Registry。
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	const subsystem = "pubsub"

	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "published_total",
			Help:      "Classified messages published by topic",
		}, []string{"topic"}),
		Unrecognized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unrecognized_total",
			Help:      "Envelopes dropped because their message type has no topic",
		}),
		Missed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "missed_total",
			Help:      "Messages skipped by lagging subscribers",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "subscribers",
			Help:      "Active topic subscriptions",
		}),
		Queued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ingest_queued",
			Help:      "Envelopes waiting for classification",
		}),
	}
}
