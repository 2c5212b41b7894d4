package models

import "time"

type OptimizePriceRequest struct {
	ProductID    string   `json:"product_id"`
	CurrentPrice float64  `json:"current_price" validate:"required,gt=0"`
	Cost         float64  `json:"cost" validate:"required,gt=0"`
	Elasticity   *float64 `json:"elasticity" validate:"omitempty,lt=0"`
	TargetMargin *float64 `json:"target_margin" validate:"omitempty,gte=0,lte=1"`
	DemandFactor *float64 `json:"demand_factor" validate:"omitempty,gt=0"`
}

type OptimizePriceResponse struct {
	ProductID        string   `json:"product_id,omitempty"`
	CurrentPrice     float64  `json:"current_price"`
	OptimalPrice     float64  `json:"optimal_price"`
	ProfitMarginPct  float64  `json:"profit_margin"`
	DeltaPct         float64  `json:"price_change_pct"`
	Recommendation   string   `json:"recommendation"`
	EstimatedDemand  *float64 `json:"estimated_demand,omitempty"`
	EstimatedRevenue *float64 `json:"estimated_revenue,omitempty"`
}

// LinearPriceRequest takes either raw observations or known coefficients.
type LinearPriceRequest struct {
	ProductID    string        `json:"product_id"`
	CurrentPrice float64       `json:"current_price" validate:"gte=0"`
	Observations []Observation `json:"observations"`
	Alpha        *float64      `json:"alpha" validate:"required_with=Beta"`
	Beta         *float64      `json:"beta" validate:"required_with=Alpha"`
}

type LinearPriceResponse struct {
	ProductID         string   `json:"product_id,omitempty"`
	Alpha             *float64 `json:"alpha"`
	Beta              *float64 `json:"beta"`
	R2                *float64 `json:"r2"`
	NPoints           int      `json:"n_points"`
	OptimalPrice      *float64 `json:"optimal_price"`
	OptimalDemand     *float64 `json:"optimal_demand"`
	OptimalRevenue    *float64 `json:"optimal_revenue"`
	OptimalElasticity *float64 `json:"optimal_elasticity"`
	Valid             bool     `json:"valid"`
	Warnings          []string `json:"warnings"`
	Recommendation    string   `json:"recommendation"`
}

type ElasticityRequest struct {
	ProductID    string        `json:"product_id"`
	Observations []Observation `json:"observations" validate:"required"`
}

type ElasticityResponse struct {
	ProductID           string              `json:"product_id,omitempty"`
	Elasticity          *float64            `json:"elasticity"`
	Intercept           *float64            `json:"intercept"`
	DemandFactor        *float64            `json:"demand_factor"`
	R2                  float64             `json:"r2"`
	NPoints             int                 `json:"n_points"`
	PriceRecommendation PriceRecommendation `json:"price_recommendation"`
	Warnings            []string            `json:"warnings"`
}

type CrossElasticityRequest struct {
	ProductID    string             `json:"product_id"`
	Observations []CrossObservation `json:"observations" validate:"required"`
}

type CrossElasticityResponse struct {
	ProductID       string   `json:"product_id,omitempty"`
	OwnElasticity   *float64 `json:"own_elasticity"`
	CrossElasticity *float64 `json:"cross_elasticity"`
	Intercept       *float64 `json:"intercept"`
	R2              float64  `json:"r2"`
	NPoints         int      `json:"n_points"`
	Relationship    string   `json:"relationship"`
	Warnings        []string `json:"warnings"`
}

type ClassifyRequest struct {
	RelativeElasticity *float64 `json:"relative_elasticity"`
	RelativeVolume     *float64 `json:"relative_volume" validate:"omitempty,gte=0"`
}

type UploadResponse struct {
	SessionID     string        `json:"session_id"`
	RowsLoaded    int           `json:"rows_loaded"`
	DroppedRows   int           `json:"dropped_rows"`
	GroupedLevels int           `json:"grouped_levels"`
	GroupSample   []string      `json:"group_sample"`
	Columns       ColumnMapping `json:"columns"`
	Delimiter     string        `json:"delimiter"`
	Locale        string        `json:"locale"`
	Warnings      []string      `json:"warnings"`
}

type EnrichResponse struct {
	SessionID  string             `json:"session_id"`
	Rows       []EnrichedRow      `json:"rows"`
	Categories []CategoryAnalysis `json:"categories"`
	Summary    ReportSummary      `json:"summary"`
}

type EnrichAcceptedResponse struct {
	SessionID string `json:"session_id"`
	JobID     string `json:"job_id"`
}

type StatusResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Uptime      string            `json:"uptime"`
	Sessions    int               `json:"sessions"`
	Components  map[string]string `json:"components"`
	Time        time.Time         `json:"time"`
}
