// Package metrics exports parser activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gnssrx/internal/gnss"
)

// Metrics is a gnss.Sink that counts frames, messages and errors.
type Metrics struct {
	Frames     *prometheus.CounterVec
	FrameBytes *prometheus.CounterVec
	Messages   *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	SourceUp   prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Frames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssrx_frames_total",
			Help: "Frames with a valid checksum, by protocol",
		}, []string{"protocol"}),
		FrameBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssrx_frame_bytes_total",
			Help: "Bytes in validated frames, by protocol",
		}, []string{"protocol"}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssrx_messages_total",
			Help: "Decoded messages, by protocol and message key",
		}, []string{"protocol", "key"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssrx_errors_total",
			Help: "Stream anomalies, by protocol and kind",
		}, []string{"protocol", "kind"}),
		SourceUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "gnssrx_source_up",
			Help: "1 while the receiver byte source is open",
		}),
	}
}

func (m *Metrics) Frame(p gnss.Protocol, frame []byte) {
	m.Frames.WithLabelValues(p.String()).Inc()
	m.FrameBytes.WithLabelValues(p.String()).Add(float64(len(frame)))
}

func (m *Metrics) Message(msg gnss.Message) {
	m.Messages.WithLabelValues(msg.Protocol().String(), msg.Key()).Inc()
}

func (m *Metrics) Error(err *gnss.ParseError) {
	m.Errors.WithLabelValues(err.Protocol.String(), err.Kind.String()).Inc()
}
