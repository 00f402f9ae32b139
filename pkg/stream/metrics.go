package stream

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects stream transport counters. Register once per process.
type Metrics struct {
	Connects   prometheus.Counter
	Reconnects prometheus.Counter
	Events     *prometheus.CounterVec
	Dropped    prometheus.Counter
	Connected  prometheus.Gauge
}

// NewMetrics creates stream metrics and registers them with reg.
// A nil registerer leaves the metrics unregistered, which tests use to
// avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facil",
			Subsystem: "stream",
			Name:      "connects_total",
			Help:      "Successful WebSocket connections to the transcription service",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facil",
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts after an unexpected close",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facil",
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Decoded session events by type",
		}, []string{"type"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facil",
			Subsystem: "stream",
			Name:      "dropped_messages_total",
			Help:      "Inbound messages dropped as malformed",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "facil",
			Subsystem: "stream",
			Name:      "connected",
			Help:      "1 while the stream connection is established",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Connects, m.Reconnects, m.Events, m.Dropped, m.Connected)
	}

	return m
}
