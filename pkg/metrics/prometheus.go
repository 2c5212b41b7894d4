package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	published   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	optimal     *prometheus.GaugeVec
	elasticity  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		published: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceopt_messages_published_total",
				Help: "Total number of recommendations and records shipped to a backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "priceopt_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		optimal: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "priceopt_optimal_price",
				Help: "Latest recommended price per product",
			},
			[]string{"product"},
		),
		elasticity: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "priceopt_elasticity",
				Help: "Latest own-price elasticity estimate per product",
			},
			[]string{"product"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "priceopt_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPublished(backend string) {
	r.published.WithLabelValues(backend).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordOptimalPrice(product string, price float64) {
	r.optimal.WithLabelValues(product).Set(price)
}

func (r *Recorder) RecordElasticity(product string, e float64) {
	r.elasticity.WithLabelValues(product).Set(e)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
