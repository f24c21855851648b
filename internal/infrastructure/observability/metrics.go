package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"gridsync-logstream/internal/domain"
)

// Metrics also serves as a controller observer.
type Metrics struct {
	registry           *prometheus.Registry
	ConnectionAttempts prometheus.Counter
	SessionsEnded      *prometheus.CounterVec
	RecordsTotal       prometheus.Counter
	EvictionsTotal     prometheus.Counter
	ControllerState    *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ConnectionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logstream",
			Name:      "connection_attempts_total",
			Help:      "Connection attempts to the node log stream",
		}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logstream",
			Name:      "sessions_ended_total",
			Help:      "Ended stream sessions by reason",
		}, []string{"reason"}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logstream",
			Name:      "records_total",
			Help:      "Log records received",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logstream",
			Name:      "records_evicted_total",
			Help:      "Records dropped by the retention limit",
		}),
		ControllerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logstream",
			Name:      "controller_state",
			Help:      "1 for the controller's current state, 0 otherwise",
		}, []string{"state"}),
	}
	r.MustRegister(m.ConnectionAttempts, m.SessionsEnded, m.RecordsTotal, m.EvictionsTotal, m.ControllerState)
	for _, s := range domain.ControllerStates {
		m.ControllerState.WithLabelValues(string(s)).Set(0)
	}
	m.ControllerState.WithLabelValues(string(domain.StateStopped)).Set(1)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) StateChanged(from, to domain.ControllerState) {
	m.ControllerState.WithLabelValues(string(from)).Set(0)
	m.ControllerState.WithLabelValues(string(to)).Set(1)
}

func (m *Metrics) AttemptStarted(domain.EndpointAddress) { m.ConnectionAttempts.Inc() }

func (m *Metrics) SessionEnded(reason domain.EndReason, _ error) {
	m.SessionsEnded.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) RecordReceived(domain.LogRecord) { m.RecordsTotal.Inc() }

// RecordsEvicted matches the memory store's eviction hook.
func (m *Metrics) RecordsEvicted(n int) { m.EvictionsTotal.Add(float64(n)) }
