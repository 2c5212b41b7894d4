package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"PriceOpt/internal/domain/models"
)

// MeanQuantity is the average quantity sold per observation, NaN when empty.
func MeanQuantity(obs []models.Observation) float64 {
	if len(obs) == 0 {
		return math.NaN()
	}
	qs := make([]float64, len(obs))
	for i, o := range obs {
		qs[i] = o.Quantity
	}
	return stat.Mean(qs, nil)
}

// RelativeVolumes divides each product's mean quantity by the average of the
// per-product means in the same category. Products with an undefined mean, or a
// category whose average is not positive, get no entry.
func RelativeVolumes(productMeans map[string]float64) map[string]float64 {
	var vals []float64
	for _, m := range productMeans {
		if !math.IsNaN(m) {
			vals = append(vals, m)
		}
	}
	out := make(map[string]float64, len(productMeans))
	if len(vals) == 0 {
		return out
	}
	avg := stat.Mean(vals, nil)
	if avg <= 0 {
		return out
	}
	for k, m := range productMeans {
		if !math.IsNaN(m) {
			out[k] = m / avg
		}
	}
	return out
}

// MeanStd returns the mean and sample standard deviation, ignoring NaN values.
// Std is 0 for fewer than two values.
func MeanStd(xs []float64) (mean, std float64) {
	clean := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	switch len(clean) {
	case 0:
		return math.NaN(), 0
	case 1:
		return clean[0], 0
	}
	return stat.MeanStdDev(clean, nil)
}
