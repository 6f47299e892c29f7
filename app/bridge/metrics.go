package bridge

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
)

const metricsNamespace = "pluginbridge"

// Long-poll outcomes.
const (
	outcomeResult    = "result"
	outcomeTimeout   = "timeout"
	outcomeUnknown   = "unknown"
	outcomeImmediate = "immediate"
)

// Metrics owns a private registry so several apps can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	commandsSubmitted prometheus.Counter
	commandsRejected  *prometheus.CounterVec
	resultsReceived   *prometheus.CounterVec
	longPolls         *prometheus.CounterVec
	waitDuration      *prometheus.HistogramVec
	liveConnections   *prometheus.GaugeVec
	liveDropped       prometheus.Counter
}

// NewMetrics registers request metrics plus gauges that read correlator and
// outbox stats at scrape time.
func NewMetrics(c *correlation.Correlator, o *outbox.Outbox) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		commandsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_submitted_total",
			Help:      "Commands accepted into the outbox.",
		}),
		commandsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_rejected_total",
			Help:      "Commands refused at submission.",
		}, []string{"reason"}),
		resultsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "results_received_total",
			Help:      "Results reported by the executor.",
		}, []string{"success"}),
		longPolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "long_polls_total",
			Help:      "Result and command long-polls by outcome.",
		}, []string{"endpoint", "outcome"}),
		waitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "long_poll_duration_seconds",
			Help:      "Time callers spent suspended in a long-poll.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"endpoint"}),
		liveConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "live_connections",
			Help:      "Open live-update connections.",
		}, []string{"transport"}),
		liveDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "live_notifications_dropped_total",
			Help:      "Notifications dropped because a live client fell behind.",
		}),
	}

	gauge := func(name, help string, fn func() float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, fn)
	}
	counter := func(name, help string, fn func() float64) {
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, fn)
	}

	gauge("stored_results", "Results held in the result store.",
		func() float64 { return float64(c.Stats().StoredResults) })
	gauge("pending_commands", "Dispatched commands without a result.",
		func() float64 { return float64(c.Stats().PendingCommands) })
	gauge("active_waiters", "Callers suspended waiting for a result.",
		func() float64 { return float64(c.Stats().ActiveWaiters) })
	gauge("result_subscribers", "Registered result subscribers.",
		func() float64 { return float64(c.Stats().Subscribers) })
	counter("waits_timed_out_total", "Waits that ended without a result.",
		func() float64 { return float64(c.Stats().WaitsTimedOut) })
	counter("results_evicted_total", "Results removed by retention.",
		func() float64 { return float64(c.Stats().ResultsEvicted) })
	counter("subscriber_panics_total", "Recovered subscriber panics.",
		func() float64 { return float64(c.Stats().SubscriberPanics) })
	gauge("outbox_queued", "Commands waiting for the executor.",
		func() float64 { return float64(o.Stats().Queued) })
	counter("outbox_delivered_total", "Commands handed to the executor.",
		func() float64 { return float64(o.Stats().Delivered) })

	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
