package observability

import (
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the support backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	turnsTotal       *prometheus.CounterVec
	intentsTotal     *prometheus.CounterVec
	escalationsTotal *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	escalationScore  prometheus.Histogram
	confidenceScore  prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enquiro_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_chat_turns_total",
				Help: "Total chat turns evaluated.",
			},
			[]string{"status"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_intents_total",
				Help: "Classified intents by tag.",
			},
			[]string{"intent"},
		),
		escalationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_escalations_total",
				Help: "Escalation decisions by tier.",
			},
			[]string{"tier"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enquiro_fallback_strategies_total",
				Help: "Low-confidence fallback strategies by name.",
			},
			[]string{"strategy"},
		),
		escalationScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enquiro_escalation_score",
				Help:    "Escalation score distribution per evaluated turn.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		confidenceScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enquiro_confidence_score",
				Help:    "Confidence score distribution per evaluated turn.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrTurn increments the evaluated-turn counter with a status label.
func (m *Metrics) IncrTurn(status string) {
	m.turnsTotal.WithLabelValues(status).Inc()
}

// RecordDecision records one engine decision: intent, tier (empty tier is
// recorded as "none") and both score histograms.
func (m *Metrics) RecordDecision(intent, tier string, escalationScore, confidenceScore int) {
	m.intentsTotal.WithLabelValues(intent).Inc()
	if tier == "" {
		tier = "none"
	}
	m.escalationsTotal.WithLabelValues(tier).Inc()
	m.escalationScore.Observe(float64(escalationScore))
	m.confidenceScore.Observe(float64(confidenceScore))
}

// IncrFallback increments the counter for a used fallback strategy.
func (m *Metrics) IncrFallback(strategy string) {
	m.fallbacksTotal.WithLabelValues(strategy).Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	turns := getCounterValue(m.turnsTotal, "answered") +
		getCounterValue(m.turnsTotal, "escalated") +
		getCounterValue(m.turnsTotal, "error")
	errors := getCounterValue(m.turnsTotal, "error")
	escalations := getCounterValue(m.escalationsTotal, "immediate_escalation")

	fallbacks := float64(0)
	for _, name := range []string{
		"pricing_available", "service_inquiry", "check_faq_policy",
		"general_info_available", "case_followup_fallback",
		"suggest_available_topics", "general_fallback",
	} {
		fallbacks += getCounterValue(m.fallbacksTotal, name)
	}

	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	cacheHits := getCounterValue(m.cacheHits, "knowledge")
	cacheMisses := getCounterValue(m.cacheMisses, "knowledge")

	snapshot := &domain.EngineMetrics{
		TurnsEvaluated:    int64(turns),
		EscalationsOpened: int64(escalations),
		Period:            "all_time",
	}
	if turns > 0 {
		snapshot.EscalationRate = escalations / turns
		snapshot.FallbackRate = fallbacks / turns
		snapshot.ErrorRate = errors / turns
		snapshot.AvgTokensPerRequest = (promptTokens + completionTokens) / turns
	}
	if cacheHits+cacheMisses > 0 {
		snapshot.CacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	return snapshot
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
