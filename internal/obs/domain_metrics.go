package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PlanSolveTotal counts plan computations by outcome.
	PlanSolveTotal *prometheus.CounterVec
	// PlanSolveLatency records search latency in milliseconds.
	PlanSolveLatency *prometheus.HistogramVec
	// PlanStatesExpanded records how many search states each plan expanded.
	PlanStatesExpanded prometheus.Histogram
	// PlanCacheTotal counts plan cache lookups by result.
	PlanCacheTotal *prometheus.CounterVec
	// PlanQuantity records requested item quantities.
	PlanQuantity prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers planner Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PlanSolveTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_solve_total",
			Help:      "Count of plan computations by outcome.",
		}, []string{"result"}))
		PlanSolveLatency = registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_solve_duration_ms",
			Help:      "Latency of plan searches in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"exact"}))
		PlanStatesExpanded = registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_states_expanded",
			Help:      "Number of search states expanded per plan.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}))
		PlanCacheTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_cache_total",
			Help:      "Count of plan cache lookups by result.",
		}, []string{"result"}))
		PlanQuantity = registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_requested_quantity",
			Help:      "Requested item quantity per plan.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}))
	})
}

// ObservePlan records the outcome of one plan computation. It is a no-op until
// MustRegisterDomainMetrics has run.
func ObservePlan(result string, exact bool, durationMillis float64, statesExpanded int) {
	if PlanSolveTotal == nil {
		return
	}
	PlanSolveTotal.WithLabelValues(result).Inc()
	if result != "ok" {
		return
	}
	label := "true"
	if !exact {
		label = "false"
	}
	PlanSolveLatency.WithLabelValues(label).Observe(durationMillis)
	PlanStatesExpanded.Observe(float64(statesExpanded))
}

// ObservePlanCache records a cache lookup result ("hit", "miss" or "error").
func ObservePlanCache(result string) {
	if PlanCacheTotal == nil {
		return
	}
	PlanCacheTotal.WithLabelValues(result).Inc()
}

// ObservePlanQuantity records a requested quantity.
func ObservePlanQuantity(n int) {
	if PlanQuantity == nil {
		return
	}
	PlanQuantity.Observe(float64(n))
}
