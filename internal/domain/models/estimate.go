package models

import "math"

// RegressionResult is a log-log fit ln(Q) = Intercept + Slope*ln(P).
type RegressionResult struct {
	Slope     float64
	Intercept float64
	R2        float64
	NPoints   int
	Warnings  []string
}

// LinearResult is a linear demand fit Q = Alpha + Beta*P.
type LinearResult struct {
	Alpha    float64
	Beta     float64
	R2       float64
	NPoints  int
	Warnings []string
}

// CrossRegressionResult is ln(Q) = Intercept + OwnSlope*ln(P) + CrossSlope*ln(Pc).
type CrossRegressionResult struct {
	OwnSlope   float64
	CrossSlope float64
	Intercept  float64
	R2         float64
	NPoints    int
	Warnings   []string
}

// ElasticityEstimate describes constant-elasticity demand Q = DemandFactor * P^Elasticity.
type ElasticityEstimate struct {
	Elasticity   float64
	Intercept    float64
	DemandFactor float64
	R2           float64
	NPoints      int
	Warnings     []string
}

// Defined reports whether the elasticity could be estimated.
func (e ElasticityEstimate) Defined() bool {
	return !math.IsNaN(e.Elasticity) && !math.IsInf(e.Elasticity, 0)
}

type CrossElasticityEstimate struct {
	OwnElasticity   float64
	CrossElasticity float64
	Intercept       float64
	R2              float64
	NPoints         int
	Warnings        []string
}

// OptimalPrice is an analytically derived optimum; PStar is NaN when !Valid.
type OptimalPrice struct {
	PStar    float64
	Valid    bool
	Warnings []string
}

// LinearOptimum is the operating point of a linear demand curve at its
// revenue-maximizing price.
type LinearOptimum struct {
	Price      float64
	Demand     float64
	Revenue    float64
	Elasticity float64
	Valid      bool
	Warnings   []string
}
