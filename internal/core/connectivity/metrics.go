package connectivity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dep2p/go-comms/pkg/types"
)

// Metrics 连通性指标
type Metrics struct {
	ConnectedPeers prometheus.Gauge
	Status         prometheus.Gauge
	DialAttempts   *prometheus.CounterVec
	DialRequests   *prometheus.CounterVec
	Redials        prometheus.Counter
	Events         *prometheus.CounterVec
}

// NewMetrics 创建并注册指标
//
// reg 为 nil 时使用私有 Registry，指标不会暴露。
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	const subsystem = "connectivity"

	return &Metrics{
		ConnectedPeers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connected_peers",
			Help:      "Number of peers with a live connection",
		}),
		Status: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status",
			Help:      "Connectivity status (0=offline, 1=degraded, 2=online)",
		}),
		DialAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dial_attempts_total",
			Help:      "Transport dial attempts by result",
		}, []string{"result"}),
		DialRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dial_requests_total",
			Help:      "DialPeer requests by outcome (reused, started, coalesced, cancelled)",
		}, []string{"outcome"}),
		Redials: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redials_total",
			Help:      "Scheduled redials of managed peers",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Connectivity events emitted by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) observeStatus(status types.ConnectivityStatus, connected int) {
	m.Status.Set(float64(status))
	m.ConnectedPeers.Set(float64(connected))
}
