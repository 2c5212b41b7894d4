package models

// Observation is a single (price, quantity) sale record.
type Observation struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// CrossObservation adds the competitor's price for the same period.
type CrossObservation struct {
	OwnPrice        float64 `json:"own_price"`
	OwnQuantity     float64 `json:"own_quantity"`
	CompetitorPrice float64 `json:"competitor_price"`
}
