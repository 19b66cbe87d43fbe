package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records ledger operation activity: attempts, failures and
// latency per operation, plus running totals for liquidation flow.
type EngineMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec

	liquidations        prometheus.Counter
	debtCoveredWei      prometheus.Counter
	collateralSeizedWei prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Engine returns the lazily-initialised engine metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total ledger operation failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Count of completed liquidations.",
			}),
			debtCoveredWei: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "liquidation_debt_covered_wei_total",
				Help:      "Cumulative debt repaid by liquidators, in wei.",
			}),
			collateralSeizedWei: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dsc",
				Subsystem: "engine",
				Name:      "liquidation_collateral_seized_wei_total",
				Help:      "Cumulative collateral transferred to liquidators, in wei.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.errors,
			engineRegistry.latency,
			engineRegistry.liquidations,
			engineRegistry.debtCoveredWei,
			engineRegistry.collateralSeizedWei,
		)
	})
	return engineRegistry
}

// Observe records one operation outcome. reason is only consulted when the
// operation failed.
func (m *EngineMetrics) Observe(operation string, err error, reason string, duration time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if reason == "" {
			reason = "internal"
		}
		m.errors.WithLabelValues(operation, reason).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLiquidation records a completed liquidation's flow totals. Amounts
// are clamped to float64 precision for the counters.
func (m *EngineMetrics) ObserveLiquidation(debtCovered, collateralSeized float64) {
	if m == nil {
		return
	}
	m.liquidations.Inc()
	if debtCovered > 0 {
		m.debtCoveredWei.Add(debtCovered)
	}
	if collateralSeized > 0 {
		m.collateralSeizedWei.Add(collateralSeized)
	}
}
