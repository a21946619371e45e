// Package observability provides Prometheus metrics for monitoring.
//
// Every Record/Observe helper is safe to call on a nil *Metrics so that
// components can be built without metrics in tests.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Market data
	FetchLatency *prometheus.HistogramVec
	FetchErrors  *prometheus.CounterVec

	// Forecasting
	ForecastsTotal   *prometheus.CounterVec
	ForecastDuration prometheus.Histogram

	// Live updates
	LiveSessions prometheus.Gauge
	LiveTicks    *prometheus.CounterVec
	WSClients    *prometheus.GaugeVec

	// Accounts
	AuthEvents  *prometheus.CounterVec
	Submissions *prometheus.CounterVec

	// Operations
	NotificationsSent *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stockdash"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetch_latency_seconds",
			Help:      "Market data fetch latency in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "op"}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetch_errors_total",
			Help:      "Total number of fetches that returned the unavailable sentinel",
		}, []string{"provider", "op"}),

		ForecastsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "runs_total",
			Help:      "Total number of forecast runs by status",
		}, []string{"status"}),
		ForecastDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "duration_seconds",
			Help:      "Forecast computation duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),

		LiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions",
			Help:      "Number of live sessions currently polling",
		}),
		LiveTicks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "ticks_total",
			Help:      "Total number of live ticks by resulting event",
		}, []string{"event"}),
		WSClients: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "ws_clients",
			Help:      "Connected websocket clients by channel",
		}, []string{"channel"}),

		AuthEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by action and result",
		}, []string{"action", "result"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "account",
			Name:      "submissions_total",
			Help:      "Settings form submissions by kind",
		}, []string{"kind"}),

		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "messages_total",
			Help:      "Outbound notifications by channel and status",
		}, []string{"channel", "status"}),
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and status",
		}, []string{"job", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveFetch records one adapter call.
func (m *Metrics) ObserveFetch(provider, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(provider, op).Inc()
	}
}

// ObserveForecast records one forecast run.
func (m *Metrics) ObserveForecast(start time.Time, err error) {
	if m == nil {
		return
	}
	m.ForecastsTotal.WithLabelValues(status(err)).Inc()
	m.ForecastDuration.Observe(time.Since(start).Seconds())
}

// LiveSessionStarted and LiveSessionEnded track polling sessions.
func (m *Metrics) LiveSessionStarted() {
	if m != nil {
		m.LiveSessions.Inc()
	}
}

func (m *Metrics) LiveSessionEnded() {
	if m != nil {
		m.LiveSessions.Dec()
	}
}

// RecordTick counts a live tick by event kind.
func (m *Metrics) RecordTick(event string) {
	if m != nil {
		m.LiveTicks.WithLabelValues(event).Inc()
	}
}

// ClientConnected adjusts the websocket client gauge by delta.
func (m *Metrics) ClientConnected(channel string, delta int) {
	if m != nil {
		m.WSClients.WithLabelValues(channel).Add(float64(delta))
	}
}

// RecordAuth counts an authentication action.
func (m *Metrics) RecordAuth(action string, err error) {
	if m != nil {
		m.AuthEvents.WithLabelValues(action, status(err)).Inc()
	}
}

// RecordSubmission counts a settings form submission.
func (m *Metrics) RecordSubmission(kind string) {
	if m != nil {
		m.Submissions.WithLabelValues(kind).Inc()
	}
}

// RecordNotification counts an outbound message.
func (m *Metrics) RecordNotification(channel string, err error) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(channel, status(err)).Inc()
	}
}

// RecordJob counts a scheduled job run.
func (m *Metrics) RecordJob(job string, err error) {
	if m != nil {
		m.JobRuns.WithLabelValues(job, status(err)).Inc()
	}
}
