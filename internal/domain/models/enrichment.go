package models

import "time"

// CategoryAnalysis is the log-log fit of a whole category.
type CategoryAnalysis struct {
	Category   string   `json:"category"`
	Elasticity *float64 `json:"elasticity"`
	R2         float64  `json:"r2"`
	NPoints    int      `json:"n_points"`
	Products   int      `json:"products"`
	Warnings   []string `json:"warnings"`
}

// ProductAnalysis is the per-product outcome attached to every row of the product.
type ProductAnalysis struct {
	Category                string                `json:"category"`
	Product                 string                `json:"product"`
	NPoints                 int                   `json:"n_points"`
	MeanQuantity            float64               `json:"mean_quantity"`
	Elasticity              *float64              `json:"elasticity"`
	R2                      float64               `json:"r2"`
	CategoryElasticity      *float64              `json:"category_elasticity"`
	RelativeElasticity      *float64              `json:"relative_elasticity"`
	RelativeVolume          *float64              `json:"relative_volume"`
	Classification          ProductClassification `json:"classification"`
	OptimalPriceLinear      *float64              `json:"optimal_price_linear"`
	OptimalDemandLinear     *float64              `json:"optimal_demand_linear"`
	OptimalRevenueLinear    *float64              `json:"optimal_revenue_linear"`
	OptimalElasticityLinear *float64              `json:"optimal_elasticity_linear"`
	Warnings                []string              `json:"warnings"`
}

// EnrichedRow pairs an input row with its product's analysis.
type EnrichedRow struct {
	Row      Row              `json:"row"`
	Analysis *ProductAnalysis `json:"analysis"`
}

type EnrichmentResult struct {
	SessionID   string             `json:"session_id"`
	Header      []string           `json:"header"`
	Rows        []EnrichedRow      `json:"rows"`
	Categories  []CategoryAnalysis `json:"categories"`
	Products    []ProductAnalysis  `json:"products"`
	Summary     ReportSummary      `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type RoleCount struct {
	Role  Role `json:"role"`
	Count int  `json:"count"`
}

type RecommendationCount struct {
	Recommendation PriceRecommendation `json:"recommendation"`
	Count          int                 `json:"count"`
}

// RoleStats aggregates relative signals of the products sharing a role.
type RoleStats struct {
	Role                   Role    `json:"role"`
	Products               int     `json:"products"`
	RelativeElasticityMean float64 `json:"relative_elasticity_mean"`
	RelativeElasticityStd  float64 `json:"relative_elasticity_std"`
	AbsElasticityMean      float64 `json:"abs_elasticity_mean"`
	RelativeVolumeMean     float64 `json:"relative_volume_mean"`
	RelativeVolumeStd      float64 `json:"relative_volume_std"`
}

type ReportSummary struct {
	ProductsAnalysed     int                   `json:"products_analysed"`
	ProductsClassified   int                   `json:"products_classified"`
	MeanAbsElasticity    float64               `json:"mean_abs_elasticity"`
	MeanRelativeVolume   float64               `json:"mean_relative_volume"`
	Elastic              int                   `json:"elastic"`
	Inelastic            int                   `json:"inelastic"`
	HighVolume           int                   `json:"high_volume"`
	LowVolume            int                   `json:"low_volume"`
	RoleCounts           []RoleCount           `json:"role_counts"`
	RecommendationCounts []RecommendationCount `json:"recommendation_counts"`
	RoleStats            []RoleStats           `json:"role_stats"`
}
