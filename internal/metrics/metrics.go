package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Console metrics
	pollsTotal        *prometheus.CounterVec
	pollsSkipped      *prometheus.CounterVec
	pollErrors        *prometheus.CounterVec
	reconcileOutcomes *prometheus.CounterVec
	panelRenders      *prometheus.CounterVec
	chartRenders      *prometheus.CounterVec
	alertsTotal       *prometheus.CounterVec
	backendRequests   *prometheus.CounterVec
	backendDuration   *prometheus.HistogramVec
	streamClients     prometheus.Gauge
	seriesBars        prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_polls_total",
			Help: "Total number of polls started",
		},
		[]string{"job", "trigger"},
	)
	r.pollsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_polls_skipped_total",
			Help: "Polls skipped because the previous one was still in flight",
		},
		[]string{"job"},
	)
	r.pollErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_poll_errors_total",
			Help: "Failed polls by error kind",
		},
		[]string{"job", "kind"},
	)
	r.reconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_reconcile_outcomes_total",
			Help: "Snapshot reconciliations by outcome",
		},
		[]string{"outcome"},
	)
	r.panelRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_panel_renders_total",
			Help: "Status panel refreshes by gate decision",
		},
		[]string{"decision"},
	)
	r.chartRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_chart_renders_total",
			Help: "Chart redraws by reason",
		},
		[]string{"reason"},
	)
	r.alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_alerts_total",
			Help: "Alerts delivered to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_backend_requests_total",
			Help: "Requests made to the bot backend",
		},
		[]string{"endpoint", "status"},
	)
	r.backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "botdeck_backend_request_duration_seconds",
			Help:    "Bot backend request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
	r.streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botdeck_stream_clients",
			Help: "Number of connected websocket clients",
		},
	)
	r.seriesBars = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botdeck_series_bars",
			Help: "Number of bars held by the active series",
		},
	)

	reg.MustRegister(r.pollsTotal)
	reg.MustRegister(r.pollsSkipped)
	reg.MustRegister(r.pollErrors)
	reg.MustRegister(r.reconcileOutcomes)
	reg.MustRegister(r.panelRenders)
	reg.MustRegister(r.chartRenders)
	reg.MustRegister(r.alertsTotal)
	reg.MustRegister(r.backendRequests)
	reg.MustRegister(r.backendDuration)
	reg.MustRegister(r.streamClients)
	reg.MustRegister(r.seriesBars)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordPoll records a started poll.
func (r *Registry) RecordPoll(job, trigger string) {
	r.pollsTotal.WithLabelValues(job, trigger).Inc()
}

// RecordPollSkipped records a poll dropped by the in-flight guard.
func (r *Registry) RecordPollSkipped(job string) {
	r.pollsSkipped.WithLabelValues(job).Inc()
}

// RecordPollError records a failed poll.
func (r *Registry) RecordPollError(job, kind string) {
	r.pollErrors.WithLabelValues(job, kind).Inc()
}

// RecordReconcile records the outcome of a snapshot reconciliation.
func (r *Registry) RecordReconcile(outcome string) {
	r.reconcileOutcomes.WithLabelValues(outcome).Inc()
}

// RecordPanelGate records whether the change gate let a panel refresh through.
func (r *Registry) RecordPanelGate(rendered bool) {
	decision := "suppressed"
	if rendered {
		decision = "rendered"
	}
	r.panelRenders.WithLabelValues(decision).Inc()
}

// RecordChartRender records a chart redraw.
func (r *Registry) RecordChartRender(reason string) {
	r.chartRenders.WithLabelValues(reason).Inc()
}

// RecordAlert records an alert delivery attempt.
func (r *Registry) RecordAlert(notifier, status string) {
	r.alertsTotal.WithLabelValues(notifier, status).Inc()
}

// RecordBackendRequest records a call to the bot backend. A zero status
// means the request never got a response.
func (r *Registry) RecordBackendRequest(endpoint string, status int, duration float64) {
	statusStr := "error"
	if status > 0 {
		statusStr = statusToString(status)
	}
	r.backendRequests.WithLabelValues(endpoint, statusStr).Inc()
	r.backendDuration.WithLabelValues(endpoint).Observe(duration)
}

// SetStreamClients sets the number of connected websocket clients.
func (r *Registry) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}

// SetSeriesBars sets the size of the active series.
func (r *Registry) SetSeriesBars(n int) {
	r.seriesBars.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
