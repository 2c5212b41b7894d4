// Package regression fits the ordinary-least-squares demand models used for
// elasticity estimation: log-log and linear with one regressor, and log-log with
// the competitor price as a second regressor.
//
// Fits never fail. Data-quality problems come back as NaN coefficients plus a
// warning string, so callers can decide how loud to be about them.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"PriceOpt/internal/domain/models"
)

const (
	MinPoints      = 3
	MinCrossPoints = 4

	// sum of squared deviations below this is treated as no variation
	varianceEpsilon = 1e-12
	// condition number above which the two-regressor system is singular
	maxCondition = 1e12

	flatSlope = 1e-3
	lowR2     = 0.3
)

const (
	WarnInsufficient      = "Insufficient data points (need >=3)"
	WarnInsufficientCross = "Insufficient data points (need >=4)"
	WarnNoVariance        = "No price variance; elasticity undefined"
	WarnNearZero          = "Elasticity near zero; demand appears inelastic"
	WarnFlatLinear        = "Slope near zero; demand appears flat"
	WarnLowR2             = "Low R2; elasticity estimate may be unreliable"
	WarnCollinear         = "Regressors are collinear; cross elasticity undefined"
	WarnOverflow          = "Arithmetic overflow; result undefined"
)

// FitLogLog regresses ln(quantity) on ln(price) over observations with price > 0
// and quantity > 0.
func FitLogLog(obs []models.Observation) models.RegressionResult {
	xs := make([]float64, 0, len(obs))
	ys := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.Price > 0 && o.Quantity > 0 && finite(o.Price) && finite(o.Quantity) {
			xs = append(xs, math.Log(o.Price))
			ys = append(ys, math.Log(o.Quantity))
		}
	}

	res := models.RegressionResult{Slope: math.NaN(), Intercept: math.NaN(), NPoints: len(xs)}
	if len(xs) < MinPoints {
		res.Warnings = []string{WarnInsufficient}
		return res
	}

	f := fitSimple(xs, ys)
	if f.warning != "" {
		res.Warnings = []string{f.warning}
		return res
	}
	res.Slope, res.Intercept, res.R2 = f.beta, f.alpha, f.r2
	res.Warnings = qualityWarnings(f.beta, f.r2, WarnNearZero)
	return res
}

// FitLinear regresses quantity on price over observations with price > 0 and
// quantity >= 0.
func FitLinear(obs []models.Observation) models.LinearResult {
	xs := make([]float64, 0, len(obs))
	ys := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.Price > 0 && o.Quantity >= 0 && finite(o.Price) && finite(o.Quantity) {
			xs = append(xs, o.Price)
			ys = append(ys, o.Quantity)
		}
	}

	res := models.LinearResult{Alpha: math.NaN(), Beta: math.NaN(), NPoints: len(xs)}
	if len(xs) < MinPoints {
		res.Warnings = []string{WarnInsufficient}
		return res
	}

	f := fitSimple(xs, ys)
	if f.warning != "" {
		res.Warnings = []string{f.warning}
		return res
	}
	res.Alpha, res.Beta, res.R2 = f.alpha, f.beta, f.r2
	res.Warnings = qualityWarnings(f.beta, f.r2, WarnFlatLinear)
	return res
}

// FitCross regresses ln(own quantity) on ln(own price) and ln(competitor price).
// The normal equations are solved on centered data so the intercept drops out of
// the 2x2 system.
func FitCross(obs []models.CrossObservation) models.CrossRegressionResult {
	var x1, x2, ys []float64
	for _, o := range obs {
		if o.OwnPrice > 0 && o.OwnQuantity > 0 && o.CompetitorPrice > 0 &&
			finite(o.OwnPrice) && finite(o.OwnQuantity) && finite(o.CompetitorPrice) {
			x1 = append(x1, math.Log(o.OwnPrice))
			x2 = append(x2, math.Log(o.CompetitorPrice))
			ys = append(ys, math.Log(o.OwnQuantity))
		}
	}

	n := len(ys)
	res := models.CrossRegressionResult{
		OwnSlope:   math.NaN(),
		CrossSlope: math.NaN(),
		Intercept:  math.NaN(),
		NPoints:    n,
	}
	if n < MinCrossPoints {
		res.Warnings = []string{WarnInsufficientCross}
		return res
	}

	m1, m2, my := stat.Mean(x1, nil), stat.Mean(x2, nil), stat.Mean(ys, nil)
	var s11, s22, s12, s1y, s2y, syy float64
	for i := 0; i < n; i++ {
		d1, d2, dy := x1[i]-m1, x2[i]-m2, ys[i]-my
		s11 += d1 * d1
		s22 += d2 * d2
		s12 += d1 * d2
		s1y += d1 * dy
		s2y += d2 * dy
		syy += dy * dy
	}
	if s11 <= varianceEpsilon {
		res.Warnings = []string{WarnNoVariance}
		return res
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(2, []float64{s11, s12, s12, s22})); !ok || chol.Cond() > maxCondition {
		res.Warnings = []string{WarnCollinear}
		return res
	}
	var b mat.VecDense
	if err := chol.SolveVecTo(&b, mat.NewVecDense(2, []float64{s1y, s2y})); err != nil {
		res.Warnings = []string{WarnCollinear}
		return res
	}
	b1, b2 := b.AtVec(0), b.AtVec(1)
	intercept := my - b1*m1 - b2*m2

	var ssRes float64
	for i := 0; i < n; i++ {
		r := ys[i] - (intercept + b1*x1[i] + b2*x2[i])
		ssRes += r * r
	}
	r2 := rSquared(ssRes, syy)

	if !finite(b1) || !finite(b2) || !finite(intercept) {
		res.Warnings = []string{WarnOverflow}
		return res
	}
	res.OwnSlope, res.CrossSlope, res.Intercept, res.R2 = b1, b2, intercept, r2
	res.Warnings = qualityWarnings(b1, r2, WarnNearZero)
	return res
}

type simpleFit struct {
	alpha, beta, r2 float64
	warning         string
}

func fitSimple(xs, ys []float64) simpleFit {
	mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)
	var sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx <= varianceEpsilon {
		return simpleFit{warning: WarnNoVariance}
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !finite(alpha) || !finite(beta) {
		return simpleFit{warning: WarnOverflow}
	}

	var ssRes float64
	for i := range xs {
		r := ys[i] - (alpha + beta*xs[i])
		ssRes += r * r
	}
	return simpleFit{alpha: alpha, beta: beta, r2: rSquared(ssRes, syy)}
}

// rSquared is 0 when the response has no variance.
func rSquared(ssRes, ssTot float64) float64 {
	if ssTot <= varianceEpsilon {
		return 0
	}
	return 1 - ssRes/ssTot
}

func qualityWarnings(slope, r2 float64, flatMsg string) []string {
	var w []string
	if math.Abs(slope) < flatSlope {
		w = append(w, flatMsg)
	}
	if r2 < lowR2 {
		w = append(w, WarnLowR2)
	}
	return w
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
