package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceOpt/internal/domain/models"
)

func ptr(v float64) *float64 { return &v }

func TestPricingOptimizeConstant(t *testing.T) {
	m := newRecordingMetrics()
	p := NewPricing(m, 0.2)

	a := p.OptimizeConstant("sku", 15, 10, ptr(-2), nil, nil)
	assert.InDelta(t, 20.0, a.OptimalPrice, 1e-9)
	assert.Equal(t, "Raise", a.Action)
	assert.InDelta(t, 20.0, m.optimal["sku"], 1e-9)

	// inelastic: falls back to the configured margin
	a = p.OptimizeConstant("", 15, 10, ptr(-0.05), nil, nil)
	assert.InDelta(t, 12.5, a.OptimalPrice, 1e-9)

	a = p.OptimizeConstant("", 15, 10, nil, ptr(0.5), nil)
	assert.InDelta(t, 20.0, a.OptimalPrice, 1e-9)
}

func TestPricingOptimizeLinear(t *testing.T) {
	p := NewPricing(newRecordingMetrics(), 0.3)

	out := p.OptimizeLinear("sku", 20, nil, ptr(100), ptr(-2))
	require.True(t, out.Optimum.Valid)
	assert.InDelta(t, 25.0, out.Optimum.Price, 1e-9)
	assert.InDelta(t, 1250.0, out.Optimum.Revenue, 1e-9)
	assert.Contains(t, out.Advice, "Raise price")

	obs := []models.Observation{{Price: 10, Quantity: 80}, {Price: 20, Quantity: 60}, {Price: 30, Quantity: 40}}
	out = p.OptimizeLinear("", 30, obs, nil, nil)
	require.True(t, out.Optimum.Valid)
	assert.InDelta(t, -2.0, out.Fit.Beta, 1e-9)
	assert.Contains(t, out.Advice, "Lower price")

	out = p.OptimizeLinear("", 10, nil, ptr(5), ptr(1))
	assert.False(t, out.Optimum.Valid)
	assert.Contains(t, out.Advice, "Keep current price")
}

func TestPricingElasticityAndClassify(t *testing.T) {
	m := newRecordingMetrics()
	p := NewPricing(m, 0.3)
	est := p.Elasticity("sku", []models.Observation{{Price: 1, Quantity: 100}, {Price: 2, Quantity: 25}, {Price: 4, Quantity: 6.25}})
	assert.InDelta(t, -2.0, est.Elasticity, 1e-9)
	assert.InDelta(t, -2.0, m.elastic["sku"], 1e-9)

	undefined := p.Elasticity("x", nil)
	assert.False(t, undefined.Defined())
	_, seen := m.elastic["x"]
	assert.False(t, seen)

	c := p.Classify(ptr(0.4), ptr(1.5))
	assert.Equal(t, models.ProfitGenerator, c.Role)
	c = p.Classify(nil, ptr(1.5))
	assert.Equal(t, models.Unclassified, c.Role)
}
