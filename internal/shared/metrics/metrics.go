package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Job metrics
	JobsProcessedTotal *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	ActiveJobs         prometheus.Gauge

	// FFmpeg operation metrics
	FFmpegStrategyAttempts *prometheus.CounterVec
	FFmpegProcessingTime   prometheus.Histogram

	// Watcher metrics
	WatcherEventsTotal *prometheus.CounterVec

	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		JobsProcessedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watermark_jobs_total",
				Help: "Total number of watermark jobs by outcome",
			},
			[]string{"outcome", "kind"},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watermark_job_duration_seconds",
				Help:    "Watermark render duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind", "outcome"},
		),
		ActiveJobs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watermark_active_jobs",
				Help: "Number of currently rendering jobs",
			},
		),

		FFmpegStrategyAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ffmpeg_strategy_attempts_total",
				Help: "Total number of ffmpeg invocations per escaping strategy",
			},
			[]string{"strategy", "status"},
		),
		FFmpegProcessingTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ffmpeg_processing_time_seconds",
				Help:    "FFmpeg processing time in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		WatcherEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_events_total",
				Help: "Total number of filesystem events observed",
			},
			[]string{"op"},
		),

		WebSocketConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websocket_connections",
				Help: "Number of active WebSocket connections",
			},
		),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := statusCodeToString(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordJobStarted records the start of a render
func (m *Metrics) RecordJobStarted() {
	m.ActiveJobs.Inc()
}

// RecordJobFinished records a job outcome with its render duration
func (m *Metrics) RecordJobFinished(kind, outcome string, duration time.Duration) {
	m.ActiveJobs.Dec()
	m.JobsProcessedTotal.WithLabelValues(outcome, kind).Inc()
	m.JobDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}

// RecordJobSkipped records a job that never entered the render step
func (m *Metrics) RecordJobSkipped(kind string) {
	m.JobsProcessedTotal.WithLabelValues("skipped", kind).Inc()
}

// RecordStrategyAttempt records one ffmpeg invocation for an escaping strategy
func (m *Metrics) RecordStrategyAttempt(strategy string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.FFmpegStrategyAttempts.WithLabelValues(strategy, status).Inc()
	m.FFmpegProcessingTime.Observe(duration.Seconds())
}

// RecordWatcherEvent records a filesystem event by operation
func (m *Metrics) RecordWatcherEvent(op string) {
	m.WatcherEventsTotal.WithLabelValues(op).Inc()
}

// RecordWebSocketConnection records a WebSocket connection change
func (m *Metrics) RecordWebSocketConnection(connected bool) {
	if connected {
		m.WebSocketConnections.Inc()
	} else {
		m.WebSocketConnections.Dec()
	}
}

// statusCodeToString converts HTTP status code to category string
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
