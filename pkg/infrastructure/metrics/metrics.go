package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "industry_planner"

// Outcome labels for planning requests
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// PlanningMetrics holds the collectors emitted by the planning orchestrator
type PlanningMetrics struct {
	PlansTotal       *prometheus.CounterVec
	PlanDuration     prometheus.Histogram
	PlanNodes        prometheus.Histogram
	UnknownCostRoots prometheus.Counter
	CacheLookups     *prometheus.CounterVec
	ValuationsTotal  *prometheus.CounterVec
}

// NewPlanningMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewPlanningMetrics(reg prometheus.Registerer) *PlanningMetrics {
	m := &PlanningMetrics{
		PlansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Planning requests by outcome.",
		}, []string{"outcome"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Wall time of a planning request including snapshot loading.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		PlanNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_nodes",
			Help:      "Plan nodes produced per request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		UnknownCostRoots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_cost_roots_total",
			Help:      "Requirements whose effective cost could not be determined.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_cache_lookups_total",
			Help:      "Memo cache lookups during planning by result.",
		}, []string{"result"}),
		ValuationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valuations_total",
			Help:      "Cost basis records resolved by source.",
		}, []string{"source"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PlansTotal,
			m.PlanDuration,
			m.PlanNodes,
			m.UnknownCostRoots,
			m.CacheLookups,
			m.ValuationsTotal,
		)
	}
	return m
}

// ObservePlan records one finished planning request
func (m *PlanningMetrics) ObservePlan(elapsed time.Duration, nodes, unknownRoots, cacheHits, cacheMisses int) {
	if m == nil {
		return
	}
	m.PlansTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.PlanDuration.Observe(elapsed.Seconds())
	m.PlanNodes.Observe(float64(nodes))
	m.UnknownCostRoots.Add(float64(unknownRoots))
	m.CacheLookups.WithLabelValues("hit").Add(float64(cacheHits))
	m.CacheLookups.WithLabelValues("miss").Add(float64(cacheMisses))
}

// ObservePlanError records a planning request that returned an error
func (m *PlanningMetrics) ObservePlanError(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PlansTotal.WithLabelValues(OutcomeError).Inc()
	m.PlanDuration.Observe(elapsed.Seconds())
}

// ObserveValuation counts one resolved cost basis record
func (m *PlanningMetrics) ObserveValuation(source string) {
	if m == nil {
		return
	}
	m.ValuationsTotal.WithLabelValues(source).Inc()
}
