package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts producer activity. All metrics are optional; a nil
// *Metrics is safe to call.
type Metrics struct {
	streamsActive prometheus.Gauge
	frames        *prometheus.CounterVec
	aborts        prometheus.Counter
	failures      prometheus.Counter
}

// NewMetrics registers the producer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		streamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sibyl_streams_active",
			Help: "Number of event streams currently open.",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sibyl_frames_emitted_total",
			Help: "Frames written to clients, by event type.",
		}, []string{"type"}),
		aborts: factory.NewCounter(prometheus.CounterOpts{
			Name: "sibyl_streams_aborted_total",
			Help: "Streams stopped early because the client went away.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sibyl_streams_errored_total",
			Help: "Streams terminated by a pipeline error.",
		}),
	}
}

func (m *Metrics) streamOpened() {
	if m != nil {
		m.streamsActive.Inc()
	}
}

func (m *Metrics) streamClosed() {
	if m != nil {
		m.streamsActive.Dec()
	}
}

func (m *Metrics) frameEmitted(eventType string) {
	if m != nil {
		m.frames.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) streamAborted() {
	if m != nil {
		m.aborts.Inc()
	}
}

func (m *Metrics) streamErrored() {
	if m != nil {
		m.failures.Inc()
	}
}
