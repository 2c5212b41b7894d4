package models

import "time"

// ColumnMapping holds resolved column indexes; -1 means absent.
type ColumnMapping struct {
	Price           int `json:"price"`
	Quantity        int `json:"quantity"`
	Category        int `json:"category"`
	Product         int `json:"product"`
	CompetitorPrice int `json:"competitor_price"`
}

// Row is one parsed input line. Cells keeps the original text for export.
type Row struct {
	Index           int      `json:"index"`
	Cells           []string `json:"cells"`
	Category        string   `json:"category"`
	Product         string   `json:"product"`
	Price           float64  `json:"price"`
	Quantity        float64  `json:"quantity"`
	CompetitorPrice *float64 `json:"competitor_price,omitempty"`
}

// Group is an ordered observation list for one category (or product).
type Group struct {
	Name         string        `json:"name"`
	Observations []Observation `json:"observations"`
}

type Dataset struct {
	ID          string        `json:"id"`
	Header      []string      `json:"header"`
	Columns     ColumnMapping `json:"columns"`
	Delimiter   string        `json:"delimiter"`
	Locale      string        `json:"locale"`
	Rows        []Row         `json:"rows"`
	Groups      []Group       `json:"groups"`
	DroppedRows int           `json:"dropped_rows"`
	Warnings    []string      `json:"warnings"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CrossObservations returns rows carrying a competitor price.
func (d *Dataset) CrossObservations() []CrossObservation {
	var out []CrossObservation
	for _, r := range d.Rows {
		if r.CompetitorPrice == nil {
			continue
		}
		out = append(out, CrossObservation{OwnPrice: r.Price, OwnQuantity: r.Quantity, CompetitorPrice: *r.CompetitorPrice})
	}
	return out
}

// GroupEstimate is the elasticity of one uploaded group; nil means undefined.
type GroupEstimate struct {
	Group        string   `json:"group"`
	Elasticity   *float64 `json:"elasticity"`
	DemandFactor *float64 `json:"demand_factor"`
	R2           float64  `json:"r2"`
	NPoints      int      `json:"n_points"`
	Warnings     []string `json:"warnings"`
}
