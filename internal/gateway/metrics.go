// ABOUTME: Prometheus metrics for chat requests, streams, and sessions
// ABOUTME: Served from the configured metrics path via promhttp

package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/troupehq/troupe-gateway/internal/session"
)

// metrics holds the gateway's Prometheus collectors. Each Gateway owns its
// own registry so repeated construction (tests) never collides.
type metrics struct {
	registry        *prometheus.Registry
	chatTotal       *prometheus.CounterVec
	streamTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	deltasTotal     prometheus.Counter
}

// newMetrics creates the gateway collectors, including a live session gauge
// backed by the store.
func newMetrics(sessions *session.Store) *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &metrics{
		registry: reg,
		chatTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "troupe_chat_requests_total",
				Help: "Total number of chat requests by agent and status",
			},
			[]string{"agent", "status"},
		),
		streamTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "troupe_stream_requests_total",
				Help: "Total number of streaming chat requests by agent and status",
			},
			[]string{"agent", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "troupe_request_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "agent"},
		),
		deltasTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "troupe_stream_deltas_total",
				Help: "Total number of SSE delta events emitted",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "troupe_sessions_live",
			Help: "Number of sessions currently held in memory",
		},
		func() float64 { return float64(sessions.Len()) },
	)

	return m
}

// observeChat records a completed /api/chat run.
func (m *metrics) observeChat(agent, status string, d time.Duration) {
	m.chatTotal.WithLabelValues(agent, status).Inc()
	m.requestDuration.WithLabelValues("chat", agent).Observe(d.Seconds())
}

// observeStream records a completed /api/chat/stream run.
func (m *metrics) observeStream(agent, status string, d time.Duration) {
	m.streamTotal.WithLabelValues(agent, status).Inc()
	m.requestDuration.WithLabelValues("chat_stream", agent).Observe(d.Seconds())
}

// handler returns the HTTP handler serving this gateway's registry.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
