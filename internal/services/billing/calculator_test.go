package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalsExample(t *testing.T) {
	items := []LineItem{
		{Description: "Design work", Quantity: 2, Rate: 100},
		{Description: "Hosting", Quantity: 1, Rate: 50},
	}
	totals := ComputeTotals(items)

	assert.InDelta(t, 250.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 45.0, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 22.5, totals.CGST, 1e-9)
	assert.InDelta(t, 22.5, totals.SGST, 1e-9)
	assert.InDelta(t, 295.0, totals.GrandTotal, 1e-9)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.TaxAmount)
	assert.Zero(t, totals.GrandTotal)

	totals = ComputeTotals([]LineItem{})
	assert.Zero(t, totals.GrandTotal)
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []LineItem{
		{Description: "a", Quantity: 3.33, Rate: 19.99},
		{Description: "b", Quantity: 0.5, Rate: 1234.56},
		{Description: "c", Quantity: 7, Rate: 0.07},
	}
	first := ComputeTotals(items)
	second := ComputeTotals(items)
	// Bit-identical, not merely close.
	assert.Equal(t, first, second)
}

func TestComputeTotalsInvariants(t *testing.T) {
	items := []LineItem{
		{Description: "a", Quantity: 1.5, Rate: 33.33},
		{Description: "b", Quantity: 12, Rate: 8.25},
	}
	totals := ComputeTotals(items)
	assert.InDelta(t, totals.Subtotal+totals.TaxAmount, totals.GrandTotal, 1e-9)
	assert.InDelta(t, totals.Subtotal*0.18, totals.TaxAmount, 1e-9)
	assert.InDelta(t, totals.TaxAmount/2, totals.CGST, 1e-9)
	assert.Equal(t, totals.CGST, totals.SGST)
}

func TestComputeTotalsNegativeLineReducesSubtotal(t *testing.T) {
	// Negatives are contractual: the calculator does not clamp.
	items := []LineItem{
		{Description: "work", Quantity: 2, Rate: 100},
		{Description: "credit", Quantity: -1, Rate: 50},
	}
	totals := ComputeTotals(items)
	assert.InDelta(t, 150.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 177.0, totals.GrandTotal, 1e-9)
}

func TestValidateItems(t *testing.T) {
	require.NoError(t, ValidateItems([]LineItem{{Description: "x", Quantity: 1, Rate: 2}}))
	require.NoError(t, ValidateItems(nil))

	bad := [][]LineItem{
		{{Description: "x", Quantity: -1, Rate: 2}},
		{{Description: "x", Quantity: 1, Rate: -2}},
		{{Description: "x", Quantity: math.NaN(), Rate: 2}},
		{{Description: "x", Quantity: 1, Rate: math.Inf(1)}},
		{{Description: "", Quantity: 1, Rate: 2}},
	}
	for _, items := range bad {
		assert.ErrorIs(t, ValidateItems(items), ErrInvalidLineItem)
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	// 0.125 is exactly representable, so the .5 case is exercised for real.
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 295.0, Round2(295.0000000001))
	assert.Equal(t, 1.01, Round2(1.0051))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(29500), MinorUnits(295.0))
	assert.Equal(t, int64(1), MinorUnits(0.01))
	assert.Equal(t, int64(1055), MinorUnits(10.55))
	assert.Equal(t, int64(0), MinorUnits(0))
}
