// Package elasticity turns regression fits into demand-curve estimates.
package elasticity

import (
	"math"

	"PriceOpt/internal/domain/models"
	"PriceOpt/internal/services/regression"
)

// Estimate fits constant-elasticity demand Q = A*P^e and derives A = exp(intercept).
func Estimate(obs []models.Observation) models.ElasticityEstimate {
	fit := regression.FitLogLog(obs)
	est := models.ElasticityEstimate{
		Elasticity:   fit.Slope,
		Intercept:    fit.Intercept,
		DemandFactor: math.NaN(),
		R2:           fit.R2,
		NPoints:      fit.NPoints,
		Warnings:     fit.Warnings,
	}
	if math.IsNaN(fit.Intercept) {
		return est
	}
	a := math.Exp(fit.Intercept)
	if math.IsInf(a, 0) || a == 0 {
		est.Warnings = append(est.Warnings, regression.WarnOverflow)
		return est
	}
	est.DemandFactor = a
	return est
}

// EstimateCross estimates own and cross price elasticity from competitor-priced data.
func EstimateCross(obs []models.CrossObservation) models.CrossElasticityEstimate {
	fit := regression.FitCross(obs)
	return models.CrossElasticityEstimate{
		OwnElasticity:   fit.OwnSlope,
		CrossElasticity: fit.CrossSlope,
		Intercept:       fit.Intercept,
		R2:              fit.R2,
		NPoints:         fit.NPoints,
		Warnings:        fit.Warnings,
	}
}

// EstimateLinear fits Q = alpha + beta*P.
func EstimateLinear(obs []models.Observation) models.LinearResult {
	return regression.FitLinear(obs)
}

// Relative divides a product elasticity by its category elasticity. It is
// undefined when either is undefined or the category elasticity is ~0.
func Relative(product, category float64) (float64, bool) {
	if math.IsNaN(product) || math.IsNaN(category) || math.Abs(category) < 1e-9 {
		return math.NaN(), false
	}
	r := product / category
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return math.NaN(), false
	}
	return r, true
}
