package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voicenotes"

// Metrics holds the gateway's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	inbound struct {
		requests *prometheus.CounterVec
		duration *prometheus.HistogramVec
	}
	upstream struct {
		requests *prometheus.CounterVec
		duration *prometheus.HistogramVec
	}
	gateway struct {
		operations  *prometheus.CounterVec
		conversions *prometheus.CounterVec
	}
	generation struct {
		tokens      *prometheus.CounterVec
		outputChars *prometheus.HistogramVec
	}
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.inbound.requests = counter("http", "requests_total",
		"HTTP requests handled, by chi route pattern.", "route", "method", "status")
	m.inbound.duration = histogram("http", "request_duration_seconds",
		"HTTP request latency.", prometheus.DefBuckets, "route", "method", "status")

	m.upstream.requests = counter("upstream", "requests_total",
		"Calls to the OpenAI-compatible API; status is \"error\" when no response arrived.", "endpoint", "status")
	m.upstream.duration = histogram("upstream", "request_duration_seconds",
		"Upstream call latency.", []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60}, "endpoint", "status")

	m.gateway.operations = counter("gateway", "operations_total",
		"Transcribe, convert and translate calls by outcome (ok or error code).", "operation", "outcome")
	m.gateway.conversions = counter("gateway", "conversions_total",
		"Convert calls by output format and outcome.", "format", "outcome")

	m.generation.tokens = counter("generation", "tokens_total",
		"Tokens reported by the chat completion API.", "operation", "kind")
	m.generation.outputChars = histogram("generation", "output_chars",
		"Length of generated text in characters.", prometheus.ExponentialBuckets(32, 2, 10), "operation")

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inbound.requests, m.inbound.duration,
		m.upstream.requests, m.upstream.duration,
		m.gateway.operations, m.gateway.conversions,
		m.generation.tokens, m.generation.outputChars,
	)
	return m
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for scraping in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{orUnknown(route), orUnknown(method), strconv.Itoa(status)}
	m.inbound.requests.WithLabelValues(labels...).Inc()
	m.inbound.duration.WithLabelValues(labels...).Observe(duration.Seconds())
}

// ObserveUpstream matches openai.ObserverFunc. A zero status means the call
// failed before a response arrived.
func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusLabel := "error"
	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.upstream.requests.WithLabelValues(orUnknown(endpoint), statusLabel).Inc()
	m.upstream.duration.WithLabelValues(orUnknown(endpoint), statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.gateway.operations.WithLabelValues(operation, orUnknown(outcome)).Inc()
}

// ObserveConversion records one convert call. format must come from the
// closed format set (or a fixed placeholder) to keep label cardinality bounded.
func (m *Metrics) ObserveConversion(format, outcome string) {
	if m == nil {
		return
	}
	m.gateway.conversions.WithLabelValues(orUnknown(format), orUnknown(outcome)).Inc()
}

// ObserveGeneration records token usage and output size for one completion.
// Zero token counts are skipped since not every backend reports usage.
func (m *Metrics) ObserveGeneration(operation string, promptTokens, completionTokens, outputChars int) {
	if m == nil {
		return
	}
	if promptTokens > 0 {
		m.generation.tokens.WithLabelValues(operation, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.generation.tokens.WithLabelValues(operation, "completion").Add(float64(completionTokens))
	}
	m.generation.outputChars.WithLabelValues(operation).Observe(float64(outputChars))
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
