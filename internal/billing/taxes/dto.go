package taxes

import "github.com/shopspring/decimal"

// SaveTaxRequest is the create/update payload; the rate is entered as a percentage.
type SaveTaxRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	RatePercent float64 `json:"rate_percent" validate:"gte=0,lte=100"`
}

// TaxView is the API projection exposing both the fraction and the percentage.
type TaxView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rate        float64 `json:"rate"`
	RatePercent float64 `json:"rate_percent"`
}

// PercentToRate converts a percentage to the stored fraction.
func PercentToRate(percent float64) float64 {
	f, _ := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)).Float64()
	return f
}

// RateToPercent converts the stored fraction to a percentage with three decimals.
func RateToPercent(rate float64) float64 {
	f, _ := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).Round(3).Float64()
	return f
}

// NewTaxView projects a Tax for the API.
func NewTaxView(t Tax) TaxView {
	return TaxView{ID: t.ID, Name: t.Name, Rate: t.Rate, RatePercent: RateToPercent(t.Rate)}
}
