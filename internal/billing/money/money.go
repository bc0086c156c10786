// Package money computes document totals from line items and a tax rate.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is the monetary projection of a line item.
type Line struct {
	Quantity float64
	Price    float64
}

// Totals are the derived amounts persisted alongside a document.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Compute returns subtotal = Σ quantity*price, tax = subtotal*rate and
// total = subtotal + tax. Non-finite inputs count as 0 and a negative rate
// is treated as no tax.
func Compute(lines []Line, rate float64) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += finite(line.Quantity) * finite(line.Price)
	}
	rate = finite(rate)
	if rate < 0 {
		rate = 0
	}
	tax := subtotal * rate
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

// BalanceDue returns total - amountPaid. Overpayment yields a negative balance.
func BalanceDue(total, amountPaid float64) float64 {
	return finite(total) - finite(amountPaid)
}

// Fixed2 renders v with exactly two decimals, rounding half away from zero.
func Fixed2(v float64) string {
	return decimal.NewFromFloat(finite(v)).StringFixed(2)
}

// Round2 rounds v to cents for display payloads.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(finite(v)).Round(2).Float64()
	return f
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Number is a lenient numeric form field. It accepts JSON numbers and numeric
// strings; null, empty and non-numeric input decode to 0.
type Number float64

// Float64 returns the value as float64.
func (n Number) Float64() float64 {
	return finite(float64(n))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(finite(v))
		}
		return nil
	}
	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		*n = Number(finite(v))
	}
	return nil
}
