// Package strategy maps relative elasticity and relative volume to a product's
// strategic role and price direction.
package strategy

import (
	"math"

	"PriceOpt/internal/domain/models"
)

const (
	elasticThreshold    = 1.0
	highVolumeThreshold = 1.0

	// Inputs are compared after rounding to 9 decimals so that OLS noise such as
	// 2.0000000000000004 falls in the same bucket as the rounded value callers see.
	boundaryPlaces = 1e9
)

var strategies = map[models.Role]string{
	models.ProfitGenerator: "Maximize margins: raise prices gradually without losing volume. " +
		"Demand is inelastic and volume is high. " +
		"Prioritize availability and quality and defend market share. " +
		"A stable source of revenue and cash.",
	models.RevenueStabilizer: "Premium positioning: keep prices high for a loyal niche. " +
		"Demand is inelastic with low volume. " +
		"Focus on superior quality, exclusivity and high-value customer segments. " +
		"Consider discontinuing if margins do not justify the inventory.",
	models.TrafficGenerator: "Penetration strategy: competitive prices and aggressive promotions. " +
		"Price sensitivity is high and so is volume. " +
		"Prioritize customer acquisition, cross-selling and complementary sales. " +
		"Offer strategic discounts to grow volume and market share.",
	models.ValueProposition: "Value positioning: competitive price with quality differentiation. " +
		"Price-sensitive product with low volume. " +
		"Invest in marketing, branding and loyalty to grow volume. " +
		"Lower prices to penetrate the market and turn it into a traffic generator.",
	models.Unclassified: "Collect more historical price and sales data to analyse elasticity and volume. " +
		"At least 3 price-quantity observations are needed for a reliable elasticity estimate.",
}

const fallbackStrategy = "Maintain the current strategy and monitor demand behaviour."

// RecommendPrice buckets |elasticity|; nil means no estimate and holds the price.
func RecommendPrice(absElasticity *float64) models.PriceRecommendation {
	if !usable(absElasticity) {
		return models.Hold
	}
	e := snap(math.Abs(*absElasticity))
	switch {
	case e > 2.0:
		return models.DecreaseSharply
	case e >= 1.0:
		return models.Decrease
	case e > 0.5:
		return models.Hold
	case e >= 0.2:
		return models.Increase
	default:
		return models.IncreaseSharply
	}
}

// ClassifyRole places a product in the elasticity x volume matrix.
func ClassifyRole(absElasticity, relativeVolume *float64) models.Role {
	if !usable(absElasticity) || !usable(relativeVolume) {
		return models.Unclassified
	}
	elastic := snap(math.Abs(*absElasticity)) >= elasticThreshold
	highVol := snap(*relativeVolume) > highVolumeThreshold

	switch {
	case !elastic && highVol:
		return models.ProfitGenerator
	case !elastic:
		return models.RevenueStabilizer
	case highVol:
		return models.TrafficGenerator
	default:
		return models.ValueProposition
	}
}

// Strategy returns the narrative for a role.
func Strategy(role models.Role) string {
	if s, ok := strategies[role]; ok {
		return s
	}
	return fallbackStrategy
}

// Classify is total: it never fails and treats nil or NaN inputs as missing.
func Classify(relativeElasticity, relativeVolume *float64) models.ProductClassification {
	var abs *float64
	if usable(relativeElasticity) {
		v := math.Abs(*relativeElasticity)
		abs = &v
	}
	role := ClassifyRole(abs, relativeVolume)
	return models.ProductClassification{
		PriceRecommendation: RecommendPrice(abs),
		Role:                role,
		Strategy:            Strategy(role),
	}
}

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func snap(v float64) float64 {
	return math.Round(v*boundaryPlaces) / boundaryPlaces
}
