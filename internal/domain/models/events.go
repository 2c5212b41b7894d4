package models

import "time"

// ObservationEvent is a streamed sale record consumed from Kafka.
type ObservationEvent struct {
	ProductID       string   `json:"product_id"`
	Category        string   `json:"category"`
	Price           float64  `json:"price"`
	Quantity        float64  `json:"quantity"`
	CompetitorPrice *float64 `json:"competitor_price,omitempty"`
	Timestamp       int64    `json:"ts"` // unix ms
	// Time is accepted instead of ts (RFC3339, date-only or unix digits).
	Time string `json:"time,omitempty"`
}

// RecommendationEvent is published whenever a product's estimate is refreshed.
type RecommendationEvent struct {
	ProductID       string              `json:"product_id"`
	Category        string              `json:"category"`
	Elasticity      *float64            `json:"elasticity"`
	DemandFactor    *float64            `json:"demand_factor"`
	CrossElasticity *float64            `json:"cross_elasticity,omitempty"`
	R2              float64             `json:"r2"`
	NPoints         int                 `json:"n_points"`
	LastPrice       float64             `json:"last_price"`
	OptimalPrice    *float64            `json:"optimal_price_linear,omitempty"`
	Recommendation  PriceRecommendation `json:"price_recommendation"`
	Warnings        []string            `json:"warnings"`
	ComputedAt      time.Time           `json:"computed_at"`
}

// AnalysisRecord is the flattened row persisted to the analytics store.
type AnalysisRecord struct {
	Source             string // "stream" or "enrichment"
	SessionID          string
	Category           string
	ProductID          string
	Elasticity         float64 // NaN when undefined
	R2                 float64
	NPoints            int
	RelativeElasticity float64
	RelativeVolume     float64
	Recommendation     string
	Role               string
	OptimalPrice       float64
	ComputedAt         time.Time
}

type ProgressStage string

const (
	StageStart    ProgressStage = "start"
	StageProgress ProgressStage = "progress"
	StageComplete ProgressStage = "complete"
	StageFailed   ProgressStage = "failed"
)

// ProgressEvent reports enrichment progress to websocket subscribers.
type ProgressEvent struct {
	SessionID string        `json:"session_id"`
	Stage     ProgressStage `json:"event"`
	Message   string        `json:"data"`
	Done      int           `json:"done"`
	Total     int           `json:"total"`
	Time      time.Time     `json:"time"`
}
