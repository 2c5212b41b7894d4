package usecase

import (
	"math"

	"PriceOpt/internal/domain/models"
	domrepo "PriceOpt/internal/domain/repository"
	svcmetrics "PriceOpt/internal/service/metrics"
	"PriceOpt/internal/services/elasticity"
	"PriceOpt/internal/services/optimizer"
	"PriceOpt/internal/services/strategy"
)

// Pricing serves the stateless estimation and optimization requests.
type Pricing struct {
	metrics       domrepo.Metrics
	defaultMargin float64
}

func NewPricing(metrics domrepo.Metrics, defaultMargin float64) *Pricing {
	return &Pricing{metrics: metrics, defaultMargin: defaultMargin}
}

// OptimizeConstant applies the markup rule, falling back to the target margin
// (the configured default when nil).
func (p *Pricing) OptimizeConstant(productID string, current, cost float64, e, margin, demandFactor *float64) optimizer.Advice {
	if margin == nil {
		m := p.defaultMargin
		margin = &m
	}
	a := optimizer.Advise(current, cost, e, margin, demandFactor)
	if productID != "" {
		p.metrics.RecordOptimalPrice(productID, a.OptimalPrice)
	}
	return a
}

// LinearPricing is a fitted (or given) linear demand curve and its optimum.
type LinearPricing struct {
	Fit     models.LinearResult
	Optimum models.LinearOptimum
	Advice  string
}

// OptimizeLinear fits Q = alpha + beta*P from obs unless both coefficients are given.
func (p *Pricing) OptimizeLinear(productID string, current float64, obs []models.Observation, alpha, beta *float64) LinearPricing {
	var fit models.LinearResult
	if alpha != nil && beta != nil {
		fit = models.LinearResult{Alpha: *alpha, Beta: *beta, R2: math.NaN()}
	} else {
		fit = elasticity.EstimateLinear(obs)
	}
	opt := optimizer.LinearOutcome(fit.Alpha, fit.Beta)
	svcmetrics.ObserveEstimate("linear", opt.Valid, opt.Warnings)
	if opt.Valid && productID != "" {
		p.metrics.RecordOptimalPrice(productID, opt.Price)
	}
	return LinearPricing{Fit: fit, Optimum: opt, Advice: optimizer.LinearAdvice(current, opt)}
}

func (p *Pricing) Elasticity(productID string, obs []models.Observation) models.ElasticityEstimate {
	est := elasticity.Estimate(obs)
	svcmetrics.ObserveEstimate("loglog", est.Defined(), est.Warnings)
	if est.Defined() && productID != "" {
		p.metrics.RecordElasticity(productID, est.Elasticity)
	}
	return est
}

func (p *Pricing) CrossElasticity(obs []models.CrossObservation) models.CrossElasticityEstimate {
	est := elasticity.EstimateCross(obs)
	svcmetrics.ObserveEstimate("cross", !math.IsNaN(est.CrossElasticity), est.Warnings)
	return est
}

func (p *Pricing) Classify(relativeElasticity, relativeVolume *float64) models.ProductClassification {
	c := strategy.Classify(relativeElasticity, relativeVolume)
	svcmetrics.RolesTotal.WithLabelValues(string(c.Role)).Inc()
	return c
}
