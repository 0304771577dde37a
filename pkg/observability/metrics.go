// Package observability exposes Prometheus metrics for the pipeline.
// All collectors are registered on the default registry; Handler serves
// them for scraping.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studypipe_job_duration_seconds",
		Help:    "Job handler execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	jobProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypipe_jobs_processed_total",
		Help: "Jobs that reached a terminal status",
	}, []string{"kind", "status"})

	jobRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypipe_job_retries_total",
		Help: "Job retry attempts",
	}, []string{"kind"})

	cacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypipe_cache_events_total",
		Help: "Analysis cache lookups by outcome",
	}, []string{"operation", "result"})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studypipe_llm_request_duration_seconds",
		Help:    "LLM request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	llmTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypipe_llm_tokens_total",
		Help: "Tokens exchanged with LLM providers",
	}, []string{"provider", "direction"})

	llmErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studypipe_llm_errors_total",
		Help: "Failed LLM requests",
	}, []string{"provider"})
)

// ObserveJobDuration records how long a job handler ran.
func ObserveJobDuration(kind string, d time.Duration) {
	jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// CountJobProcessed records a job reaching a terminal status.
func CountJobProcessed(kind, status string) {
	jobProcessed.WithLabelValues(kind, status).Inc()
}

// CountJobRetry records one retry attempt.
func CountJobRetry(kind string) {
	jobRetries.WithLabelValues(kind).Inc()
}

// CountCacheEvent records a cache lookup outcome ("hit", "miss",
// "expired") for an analysis operation.
func CountCacheEvent(operation, result string) {
	cacheEvents.WithLabelValues(operation, result).Inc()
}

// RecordLLMCall records one request to a provider with its token usage.
func RecordLLMCall(provider string, d time.Duration, inputTokens, outputTokens int, err error) {
	llmDuration.WithLabelValues(provider).Observe(d.Seconds())
	if err != nil {
		llmErrors.WithLabelValues(provider).Inc()
		return
	}
	llmTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	llmTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// Handler serves the default registry for Prometheus scrapes.
func Handler() http.Handler {
	return promhttp.Handler()
}
