// Package metrics exposes player counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moffa90/go-dfplayer/player"
	"github.com/moffa90/go-dfplayer/protocol"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// PlayerMetrics counts frames and events. It implements player.Recorder.
type PlayerMetrics struct {
	FramesSent    *prometheus.CounterVec // labels: cmd
	Responses     *prometheus.CounterVec // labels: kind
	FrameErrors   *prometheus.CounterVec // labels: reason=checksum|command|parameter|other
	AckTimeouts   *prometheus.CounterVec // labels: cmd
	EventsDropped *prometheus.CounterVec // labels: kind
}

var _ player.Recorder = (*PlayerMetrics)(nil)

// NewPlayerMetrics registers and returns the player metrics.
func NewPlayerMetrics(reg prometheus.Registerer) *PlayerMetrics {
	m := &PlayerMetrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_frames_sent_total",
			Help: "Command frames written to the module.",
		}, []string{"cmd"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_responses_total",
			Help: "Decoded responses by kind.",
		}, []string{"kind"}),
		FrameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_frame_errors_total",
			Help: "Inbound frames rejected by the parser.",
		}, []string{"reason"}),
		AckTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_ack_timeouts_total",
			Help: "Commands that were never acknowledged.",
		}, []string{"cmd"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dfplayer_events_dropped_total",
			Help: "Events discarded because the event channel was full.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.FramesSent, m.Responses, m.FrameErrors, m.AckTimeouts, m.EventsDropped)
	return m
}

func (m *PlayerMetrics) FrameSent(cmd protocol.Command) {
	m.FramesSent.WithLabelValues(cmd.Code.String()).Inc()
}

func (m *PlayerMetrics) ResponseDecoded(resp protocol.Response) {
	m.Responses.WithLabelValues(resp.Kind.String()).Inc()
}

func (m *PlayerMetrics) DecodeFailed(err error) {
	m.FrameErrors.WithLabelValues(errorReason(err)).Inc()
}

func (m *PlayerMetrics) AckTimedOut(cmd protocol.Command) {
	m.AckTimeouts.WithLabelValues(cmd.Code.String()).Inc()
}

func (m *PlayerMetrics) EventDropped(resp protocol.Response) {
	m.EventsDropped.WithLabelValues(resp.Kind.String()).Inc()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrBadChecksum):
		return "checksum"
	case errors.Is(err, protocol.ErrInvalidCommand):
		return "command"
	case errors.Is(err, protocol.ErrInvalidParameterValue):
		return "parameter"
	default:
		return "other"
	}
}
