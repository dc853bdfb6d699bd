package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection. It owns its
// registry so several collectors can coexist in tests.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	assistantAnswersTotal *prometheus.CounterVec
	chatRepliesTotal      *prometheus.CounterVec
	chatProviderDuration  prometheus.Histogram
	chatTokensTotal       *prometheus.CounterVec
	paymentsTotal         *prometheus.CounterVec
	webhookEventsTotal    *prometheus.CounterVec
	rateLimitedTotal      *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector with Go runtime
// and process collectors registered
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	m := &MetricsCollector{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		assistantAnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_answers_total",
				Help: "Rule-based assistant answers by matched category",
			},
			[]string{"category"},
		),
		chatRepliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_replies_total",
				Help: "AI chat replies by source",
			},
			[]string{"source"},
		),
		chatProviderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_provider_duration_seconds",
				Help:    "Language model provider call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
		),
		chatTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_tokens_total",
				Help: "Tokens consumed by the language model provider",
			},
			[]string{"type"},
		),
		paymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_total",
				Help: "Payments created by kind and initial status",
			},
			[]string{"kind", "status"},
		),
		webhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhook_events_total",
				Help: "Payment provider webhook events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		rateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.assistantAnswersTotal,
		m.chatRepliesTotal,
		m.chatProviderDuration,
		m.chatTokensTotal,
		m.paymentsTotal,
		m.webhookEventsTotal,
		m.rateLimitedTotal,
	)

	return m
}

// Registry returns the collector's registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}

// RecordHTTPRequest records a completed HTTP request
func (m *MetricsCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAssistantAnswer records which assistant rule answered
func (m *MetricsCollector) RecordAssistantAnswer(category string) {
	m.assistantAnswersTotal.WithLabelValues(category).Inc()
}

// RecordChatReply records where a chat reply came from
func (m *MetricsCollector) RecordChatReply(source string) {
	m.chatRepliesTotal.WithLabelValues(source).Inc()
}

// RecordChatProviderCall records a provider round trip and its token usage
func (m *MetricsCollector) RecordChatProviderCall(duration time.Duration, promptTokens, completionTokens int) {
	m.chatProviderDuration.Observe(duration.Seconds())
	m.chatTokensTotal.WithLabelValues("prompt").Add(float64(promptTokens))
	m.chatTokensTotal.WithLabelValues("completion").Add(float64(completionTokens))
}

// RecordPayment records a created payment
func (m *MetricsCollector) RecordPayment(kind, status string) {
	m.paymentsTotal.WithLabelValues(kind, status).Inc()
}

// RecordWebhookEvent records a processed webhook event
func (m *MetricsCollector) RecordWebhookEvent(eventType, outcome string) {
	m.webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter
func (m *MetricsCollector) RecordRateLimited(route string) {
	m.rateLimitedTotal.WithLabelValues(route).Inc()
}
