package pricing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// quoteDuration tracks the time taken to compute quotes.
	quoteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_quote_duration_seconds",
		Help:    "Time taken to compute a quote by offering type",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"offering_type"})

	// quotesTotal tracks computed quotes by source and method.
	quotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_quotes_total",
		Help: "Total number of quotes computed by source and method",
	}, []string{"source", "method"})

	// quoteErrors tracks quote computation failures.
	quoteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_quote_errors_total",
		Help: "Total number of failed quote computations",
	})

	// rulesApplied tracks how many rules adjusted each quoted price.
	rulesApplied = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_rules_applied_count",
		Help:    "Number of pricing rules applied per quote",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	// invalidRules tracks malformed rules skipped during evaluation.
	invalidRules = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_invalid_rules_total",
		Help: "Total number of malformed pricing rules skipped by rule type",
	}, []string{"rule_type"})

	// comparisons tracks drift comparison outcomes.
	comparisons = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_comparisons_total",
		Help: "Total number of price comparisons by status",
	}, []string{"status"})

	// sweepUpdated tracks websites refreshed by recompute sweeps.
	sweepUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_sweep_updated_total",
		Help: "Total number of websites updated by recompute sweeps",
	})

	// sweepErrors tracks per-website failures during recompute sweeps.
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_sweep_errors_total",
		Help: "Total number of per-website failures during recompute sweeps",
	})

	// sweepDuration tracks the time taken by full recompute sweeps.
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_sweep_duration_seconds",
		Help:    "Time taken by bulk recompute sweeps",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// MetricsRecorder provides methods to record pricing engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordQuote records a completed quote computation.
func (m *MetricsRecorder) RecordQuote(offeringType OfferingType, source QuoteSource, method CalculationMethod, duration time.Duration) {
	quoteDuration.WithLabelValues(string(offeringType)).Observe(duration.Seconds())
	quotesTotal.WithLabelValues(string(source), string(method)).Inc()
}

// RecordQuoteError records a failed quote computation.
func (m *MetricsRecorder) RecordQuoteError() {
	quoteErrors.Inc()
}

// RecordRulesApplied records how many rules adjusted a quoted price.
func (m *MetricsRecorder) RecordRulesApplied(count int) {
	rulesApplied.Observe(float64(count))
}

// RecordInvalidRule records a malformed rule that was skipped.
func (m *MetricsRecorder) RecordInvalidRule(ruleType string) {
	invalidRules.WithLabelValues(ruleType).Inc()
}

// RecordComparison records a drift comparison outcome.
func (m *MetricsRecorder) RecordComparison(status ComparisonStatus) {
	comparisons.WithLabelValues(string(status)).Inc()
}

// RecordSweep records the outcome of a bulk recompute sweep.
func (m *MetricsRecorder) RecordSweep(updated, errors int, duration time.Duration) {
	sweepUpdated.Add(float64(updated))
	sweepErrors.Add(float64(errors))
	sweepDuration.Observe(duration.Seconds())
}
