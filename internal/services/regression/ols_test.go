package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
)

func constantElasticity(a, e float64, prices ...float64) []models.Observation {
	obs := make([]models.Observation, 0, len(prices))
	for _, p := range prices {
		obs = append(obs, models.Observation{Price: p, Quantity: a * math.Pow(p, e)})
	}
	return obs
}

func TestFitLogLogRecoversConstantElasticity(t *testing.T) {
	obs := constantElasticity(500, -1.8, 5, 10, 15, 20, 30)
	res := FitLogLog(obs)

	require.Equal(t, 5, res.NPoints)
	require.InEpsilon(t, -1.8, res.Slope, 1e-3)
	require.InEpsilon(t, 500, math.Exp(res.Intercept), 1e-3)
	require.InDelta(t, 1.0, res.R2, 1e-9)
	require.Empty(t, res.Warnings)
}

func TestFitLogLogInsufficientData(t *testing.T) {
	obs := []models.Observation{
		{Price: 10, Quantity: 5},
		{Price: 12, Quantity: 4},
		{Price: 0, Quantity: 9},   // dropped: price
		{Price: 14, Quantity: 0},  // dropped: quantity
		{Price: -3, Quantity: 10}, // dropped: price
	}
	res := FitLogLog(obs)

	require.Equal(t, 2, res.NPoints)
	require.True(t, math.IsNaN(res.Slope))
	require.True(t, math.IsNaN(res.Intercept))
	require.Zero(t, res.R2)
	require.Equal(t, []string{WarnInsufficient}, res.Warnings)
}

func TestFitLogLogNoPriceVariance(t *testing.T) {
	obs := []models.Observation{{Price: 10, Quantity: 5}, {Price: 10, Quantity: 6}, {Price: 10, Quantity: 7}}
	res := FitLogLog(obs)

	require.Equal(t, 3, res.NPoints)
	require.True(t, math.IsNaN(res.Slope))
	require.Equal(t, []string{WarnNoVariance}, res.Warnings)
}

func TestFitLogLogFlatDemandWarns(t *testing.T) {
	obs := []models.Observation{{Price: 10, Quantity: 50}, {Price: 20, Quantity: 50}, {Price: 30, Quantity: 50}}
	res := FitLogLog(obs)

	require.InDelta(t, 0, res.Slope, 1e-12)
	require.Contains(t, res.Warnings, WarnNearZero)
	require.Contains(t, res.Warnings, WarnLowR2)
}

func TestFitLinearKnownDemand(t *testing.T) {
	obs := []models.Observation{{Price: 10, Quantity: 80}, {Price: 20, Quantity: 60}, {Price: 30, Quantity: 40}, {Price: 40, Quantity: 20}}
	res := FitLinear(obs)

	require.Equal(t, 4, res.NPoints)
	require.InDelta(t, 100.0, res.Alpha, 1e-9)
	require.InDelta(t, -2.0, res.Beta, 1e-9)
	require.InDelta(t, 1.0, res.R2, 1e-9)
	require.Empty(t, res.Warnings)
}

func TestFitLinearKeepsZeroQuantity(t *testing.T) {
	obs := []models.Observation{{Price: 10, Quantity: 20}, {Price: 20, Quantity: 10}, {Price: 30, Quantity: 0}, {Price: 0, Quantity: 4}}
	res := FitLinear(obs)

	require.Equal(t, 3, res.NPoints)
	require.InDelta(t, 30.0, res.Alpha, 1e-9)
	require.InDelta(t, -1.0, res.Beta, 1e-9)
}

func TestFitLinearNoSignal(t *testing.T) {
	obs := []models.Observation{{Price: 1, Quantity: 2}, {Price: 2, Quantity: 4}, {Price: 3, Quantity: 1}, {Price: 4, Quantity: 3}}
	res := FitLinear(obs)

	require.InDelta(t, 0, res.Beta, 1e-12)
	require.InDelta(t, 2.5, res.Alpha, 1e-12)
	require.Equal(t, []string{WarnFlatLinear, WarnLowR2}, res.Warnings)
}

func TestFitLinearInsufficient(t *testing.T) {
	res := FitLinear([]models.Observation{{Price: 1, Quantity: 2}})
	require.Equal(t, 1, res.NPoints)
	require.True(t, math.IsNaN(res.Alpha))
	require.True(t, math.IsNaN(res.Beta))
	require.Equal(t, []string{WarnInsufficient}, res.Warnings)
}

func TestFitCrossRecoversBothElasticities(t *testing.T) {
	own := []float64{10, 12, 14, 10, 12, 16}
	comp := []float64{9, 9, 11, 13, 15, 12}
	obs := make([]models.CrossObservation, len(own))
	for i := range own {
		q := math.Exp(3) * math.Pow(own[i], -1.5) * math.Pow(comp[i], 0.8)
		obs[i] = models.CrossObservation{OwnPrice: own[i], OwnQuantity: q, CompetitorPrice: comp[i]}
	}

	res := FitCross(obs)
	require.Equal(t, 6, res.NPoints)
	require.InDelta(t, -1.5, res.OwnSlope, 1e-9)
	require.InDelta(t, 0.8, res.CrossSlope, 1e-9)
	require.InDelta(t, 3.0, res.Intercept, 1e-9)
	require.InDelta(t, 1.0, res.R2, 1e-9)
	require.Empty(t, res.Warnings)
}

func TestFitCrossInsufficient(t *testing.T) {
	obs := []models.CrossObservation{
		{OwnPrice: 10, OwnQuantity: 5, CompetitorPrice: 9},
		{OwnPrice: 11, OwnQuantity: 4, CompetitorPrice: 10},
		{OwnPrice: 12, OwnQuantity: 3, CompetitorPrice: 12},
		{OwnPrice: 13, OwnQuantity: 3, CompetitorPrice: 0},
	}
	res := FitCross(obs)
	require.Equal(t, 3, res.NPoints)
	require.True(t, math.IsNaN(res.OwnSlope))
	require.True(t, math.IsNaN(res.CrossSlope))
	require.Equal(t, []string{WarnInsufficientCross}, res.Warnings)
}

func TestFitCrossCollinear(t *testing.T) {
	var obs []models.CrossObservation
	for _, p := range []float64{10, 11, 12, 13, 14} {
		obs = append(obs, models.CrossObservation{OwnPrice: p, OwnQuantity: 100 / p, CompetitorPrice: 2 * p})
	}
	res := FitCross(obs)
	require.True(t, math.IsNaN(res.CrossSlope))
	require.Equal(t, []string{WarnCollinear}, res.Warnings)
}

func TestFitCrossConstantCompetitor(t *testing.T) {
	var obs []models.CrossObservation
	for _, p := range []float64{10, 11, 12, 13} {
		obs = append(obs, models.CrossObservation{OwnPrice: p, OwnQuantity: 100 / p, CompetitorPrice: 9})
	}
	res := FitCross(obs)
	require.Equal(t, []string{WarnCollinear}, res.Warnings)
}

func TestFitsAreDeterministic(t *testing.T) {
	obs := []models.Observation{{Price: 3, Quantity: 40}, {Price: 4, Quantity: 33}, {Price: 5, Quantity: 21}, {Price: 7, Quantity: 18}}
	a, b := FitLogLog(obs), FitLogLog(obs)
	require.Equal(t, math.Float64bits(a.Slope), math.Float64bits(b.Slope))
	require.Equal(t, math.Float64bits(a.Intercept), math.Float64bits(b.Intercept))
	require.Equal(t, math.Float64bits(a.R2), math.Float64bits(b.R2))

	la, lb := FitLinear(obs), FitLinear(obs)
	require.Equal(t, math.Float64bits(la.Beta), math.Float64bits(lb.Beta))
}
