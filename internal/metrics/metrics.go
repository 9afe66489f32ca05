// Package metrics exposes Prometheus collectors for the chat service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jarvis"

type Metrics struct {
	registry *prometheus.Registry

	chatResponses   *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	sanitizerFlags  *prometheus.CounterVec
	analyticsWrites *prometheus.CounterVec
}

// New builds collectors on a private registry, so tests can create as many
// instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_responses_total",
			Help:      "Chat replies by source (provider, local, flagged).",
		}, []string{"source"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Language model calls by provider and result.",
		}, []string{"provider", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Language model call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		sanitizerFlags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sanitizer_flags_total",
			Help:      "Rejected chat inputs by reason.",
		}, []string{"reason"}),
		analyticsWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_writes_total",
			Help:      "Analytics writes by sink and result.",
		}, []string{"sink", "result"}),
	}

	m.registry.MustRegister(
		m.chatResponses,
		m.providerCalls,
		m.providerLatency,
		m.sanitizerFlags,
		m.analyticsWrites,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ChatResponse(source string) {
	if m == nil {
		return
	}
	m.chatResponses.WithLabelValues(source).Inc()
}

func (m *Metrics) ProviderCall(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, result(err)).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) SanitizerFlag(reason string) {
	if m == nil {
		return
	}
	m.sanitizerFlags.WithLabelValues(reason).Inc()
}

func (m *Metrics) AnalyticsWrite(sink string, err error) {
	if m == nil {
		return
	}
	m.analyticsWrites.WithLabelValues(sink, result(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
