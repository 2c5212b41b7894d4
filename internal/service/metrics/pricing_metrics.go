package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EstimatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceopt",
			Subsystem: "pricing",
			Name:      "estimates_total",
			Help:      "Elasticity and optimum computations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	WarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceopt",
			Subsystem: "pricing",
			Name:      "warnings_total",
			Help:      "Data-quality warnings attached to estimates",
		},
		[]string{"warning"},
	)

	RolesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "priceopt",
			Subsystem: "strategy",
			Name:      "roles_total",
			Help:      "Products classified per strategic role",
		},
		[]string{"role"},
	)

	EnrichmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "priceopt",
			Subsystem: "enrichment",
			Name:      "duration_seconds",
			Help:      "Wall time of dataset enrichment",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EstimatesTotal, WarningsTotal, RolesTotal, EnrichmentDuration)
	})
}

// ObserveEstimate counts an estimate and each of its warnings.
func ObserveEstimate(kind string, defined bool, warnings []string) {
	outcome := "ok"
	if !defined {
		outcome = "undefined"
	}
	EstimatesTotal.WithLabelValues(kind, outcome).Inc()
	for _, w := range warnings {
		WarningsTotal.WithLabelValues(w).Inc()
	}
}
