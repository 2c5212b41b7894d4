// Package optimizer computes closed-form optimal prices from estimated demand curves.
package optimizer

import (
	"fmt"
	"math"

	"PriceOpt/internal/domain/models"
)

const (
	DefaultTargetMargin = 0.3
	MaxTargetMargin     = 0.95

	// elasticities at or above this are too close to zero for the markup rule
	minUsableElasticity = -0.1
	unitElasticityGuard = 1e-6
	costFloorMarkup     = 1.01
	slopeGuard          = 1e-9
	demandGuard         = 1e-9
)

const (
	WarnUndefinedParams   = "Linear demand parameters undefined"
	WarnNonNegativeSlope  = "Non-negative slope; demand does not decline with price"
	WarnUnstableSlope     = "Slope too close to zero; optimum is numerically unstable"
	WarnNonPositivePrice  = "Optimal price is not positive"
	WarnOverflow          = "Arithmetic overflow; result undefined"
	WarnNonPositiveDemand = "Demand at optimal price is not positive"
)

// OptimizeConstantElasticity returns the profit-maximizing price for demand
// Q = A*P^e when e < -0.1 (markup rule p* = c*e/(e+1)), and otherwise the
// target-margin price c/(1-m). The result is never below cost*1.01.
// The current price does not move the optimum; callers pass it so the signature
// carries the full pricing context.
func OptimizeConstantElasticity(_, cost float64, elasticity, targetMargin *float64) float64 {
	floor := cost * costFloorMarkup

	if elasticity != nil && *elasticity < minUsableElasticity {
		e := *elasticity
		if denom := e + 1; math.Abs(denom) > unitElasticityGuard {
			if p := cost * (e / denom); !math.IsNaN(p) && !math.IsInf(p, 0) {
				return math.Max(p, floor)
			}
		}
	}

	m := DefaultTargetMargin
	if targetMargin != nil && !math.IsNaN(*targetMargin) {
		m = *targetMargin
	}
	m = math.Min(math.Max(m, 0), MaxTargetMargin)
	return math.Max(cost/(1-m), floor)
}

// OptimalPriceFromLinear returns the revenue-maximizing price -alpha/(2*beta)
// for linear demand Q = alpha + beta*P.
func OptimalPriceFromLinear(alpha, beta float64) models.OptimalPrice {
	invalid := func(w string) models.OptimalPrice {
		return models.OptimalPrice{PStar: math.NaN(), Warnings: []string{w}}
	}
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return invalid(WarnUndefinedParams)
	}
	if beta >= 0 {
		return invalid(WarnNonNegativeSlope)
	}
	den := 2 * beta
	if math.Abs(den) < slopeGuard {
		return invalid(WarnUnstableSlope)
	}
	p := -alpha / den
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return invalid(WarnOverflow)
	}
	if p <= 0 {
		return invalid(WarnNonPositivePrice)
	}
	return models.OptimalPrice{PStar: p, Valid: true}
}

// LinearOutcome evaluates linear demand at its optimum: demand, revenue and the
// point elasticity beta*P/Q (which is -1 at the revenue vertex).
func LinearOutcome(alpha, beta float64) models.LinearOptimum {
	opt := OptimalPriceFromLinear(alpha, beta)
	out := models.LinearOptimum{Price: opt.PStar, Demand: math.NaN(), Revenue: math.NaN(), Elasticity: math.NaN(), Warnings: opt.Warnings}
	if !opt.Valid {
		return out
	}
	q := alpha + beta*opt.PStar
	if q <= demandGuard {
		out.Warnings = append(out.Warnings, WarnNonPositiveDemand)
		return out
	}
	out.Demand = q
	out.Revenue = opt.PStar * q
	out.Elasticity = beta * opt.PStar / q
	out.Valid = true
	return out
}

// Advice is the boundary-friendly summary of a constant-elasticity optimization.
type Advice struct {
	OptimalPrice     float64
	MarginPct        float64
	DeltaPct         float64
	Action           string
	Text             string
	EstimatedDemand  *float64
	EstimatedRevenue *float64
}

// Advise optimizes the price and phrases the move relative to currentPrice.
// Demand and revenue at the optimum are estimated only when both elasticity and
// demandFactor are known.
func Advise(currentPrice, cost float64, elasticity, targetMargin, demandFactor *float64) Advice {
	p := OptimizeConstantElasticity(currentPrice, cost, elasticity, targetMargin)
	a := Advice{OptimalPrice: p}
	if p > 0 {
		a.MarginPct = (p - cost) / p * 100
	}
	if currentPrice > 0 {
		a.DeltaPct = (p - currentPrice) / currentPrice * 100
	}
	switch {
	case a.DeltaPct > 0:
		a.Action = "Raise"
	case a.DeltaPct < 0:
		a.Action = "Lower"
	default:
		a.Action = "Keep"
	}
	a.Text = fmt.Sprintf("%s price %.2f%% for a margin of %.2f%%", a.Action, math.Abs(a.DeltaPct), a.MarginPct)

	if elasticity != nil && demandFactor != nil {
		q := *demandFactor * math.Pow(p, *elasticity)
		if !math.IsNaN(q) && !math.IsInf(q, 0) {
			rev := p * q
			a.EstimatedDemand, a.EstimatedRevenue = &q, &rev
		}
	}
	return a
}

// LinearAdvice phrases a linear optimum for humans.
func LinearAdvice(currentPrice float64, opt models.LinearOptimum) string {
	if !opt.Valid {
		return "Keep current price; linear demand does not yield a valid optimum"
	}
	if currentPrice <= 0 {
		return fmt.Sprintf("Set price to %.2f to maximize revenue", opt.Price)
	}
	delta := (opt.Price - currentPrice) / currentPrice * 100
	switch {
	case delta > 0:
		return fmt.Sprintf("Raise price %.2f%% to %.2f to maximize revenue", delta, opt.Price)
	case delta < 0:
		return fmt.Sprintf("Lower price %.2f%% to %.2f to maximize revenue", -delta, opt.Price)
	}
	return fmt.Sprintf("Keep price at %.2f; it already maximizes revenue", opt.Price)
}
