package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	lines := []Line{{Quantity: 2, Price: 10}, {Quantity: 1, Price: 5}}
	totals := Compute(lines, 0.08)
	assert.Equal(t, 25.0, totals.Subtotal)
	assert.InDelta(t, 2.0, totals.Tax, 1e-9)
	assert.InDelta(t, 27.0, totals.Total, 1e-9)
	assert.Equal(t, "27.00", Fixed2(totals.Total))

	replaced := Compute([]Line{{Quantity: 1, Price: 100}}, 0.08)
	assert.Equal(t, 100.0, replaced.Subtotal)
	assert.InDelta(t, 8.0, replaced.Tax, 1e-9)
	assert.InDelta(t, 108.0, replaced.Total, 1e-9)
}

func TestComputeWithoutTax(t *testing.T) {
	totals := Compute([]Line{{Quantity: 3, Price: 1.5}}, 0)
	assert.Equal(t, 4.5, totals.Subtotal)
	assert.Zero(t, totals.Tax)
	assert.Equal(t, totals.Subtotal, totals.Total)

	negative := Compute([]Line{{Quantity: 1, Price: 10}}, -0.2)
	assert.Zero(t, negative.Tax)
}

func TestComputeIgnoresNonFinite(t *testing.T) {
	totals := Compute([]Line{
		{Quantity: math.NaN(), Price: 10},
		{Quantity: 2, Price: math.Inf(1)},
		{Quantity: 2, Price: 3},
	}, math.NaN())
	assert.Equal(t, 6.0, totals.Subtotal)
	assert.Zero(t, totals.Tax)
	assert.Empty(t, Compute(nil, 0.1))
}

func TestComputeTotalInvariant(t *testing.T) {
	rates := []float64{0, 0.05, 0.0825, 0.2}
	lines := []Line{{Quantity: 7, Price: 13.37}, {Quantity: 0, Price: 99}, {Quantity: 12, Price: 0.01}}
	var want float64
	for _, l := range lines {
		want += l.Quantity * l.Price
	}
	for _, rate := range rates {
		totals := Compute(lines, rate)
		assert.Equal(t, want, totals.Subtotal)
		assert.Equal(t, totals.Subtotal+totals.Subtotal*rate, totals.Total)
	}
}

func TestBalanceDue(t *testing.T) {
	assert.Equal(t, 58.0, BalanceDue(108, 50))
	assert.Equal(t, 0.0, BalanceDue(108, 108))
	assert.Equal(t, -92.0, BalanceDue(108, 200))
	assert.Equal(t, 108.0, BalanceDue(108, 0))
}

func TestNumberIsLenient(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
		F Number `json:"f"`
	}
	err := json.Unmarshal([]byte(`{"a":2.5,"b":"3","c":"","d":null,"e":"abc","f":true}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, 2.5, payload.A.Float64())
	assert.Equal(t, 3.0, payload.B.Float64())
	assert.Zero(t, payload.C.Float64())
	assert.Zero(t, payload.D.Float64())
	assert.Zero(t, payload.E.Float64())
	assert.Zero(t, payload.F.Float64())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.68, Round2(2.675000001))
	assert.Equal(t, "0.00", Fixed2(math.NaN()))
}
