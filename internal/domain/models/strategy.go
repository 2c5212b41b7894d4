package models

type PriceRecommendation string

const (
	DecreaseSharply PriceRecommendation = "Decrease sharply"
	Decrease        PriceRecommendation = "Decrease"
	Hold            PriceRecommendation = "Hold"
	Increase        PriceRecommendation = "Increase"
	IncreaseSharply PriceRecommendation = "Increase sharply"
)

// PriceRecommendations lists buckets from most to least elastic.
var PriceRecommendations = []PriceRecommendation{DecreaseSharply, Decrease, Hold, Increase, IncreaseSharply}

type Role string

const (
	ProfitGenerator   Role = "Profit generator"
	RevenueStabilizer Role = "Revenue stabilizer"
	TrafficGenerator  Role = "Traffic generator"
	ValueProposition  Role = "Value proposition"
	Unclassified      Role = "Unclassified"
)

var Roles = []Role{ProfitGenerator, RevenueStabilizer, TrafficGenerator, ValueProposition, Unclassified}

type ProductClassification struct {
	PriceRecommendation PriceRecommendation `json:"price_recommendation"`
	Role                Role                `json:"role"`
	Strategy            string              `json:"strategy"`
}
