package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLine() LineItem {
	return LineItem{
		ID:          "l1",
		ProductID:   "P-100",
		ProductName: "Widget",
		Quantity:    3,
		UOM:         "PCS",
		UnitPrice:   100,
		DiscountPct: 10,
		CGSTRate:    9,
		SGSTRate:    9,
	}
}

func TestComputeLineIntraState(t *testing.T) {
	got := ComputeLine(sampleLine(), nil, false)

	assert.Equal(t, 300.0, got.GrossAmount)
	assert.Equal(t, 30.0, got.DiscountAmount)
	assert.Equal(t, 270.0, got.TaxableAmount)
	assert.Equal(t, 48.6, got.TaxAmount)
	assert.Equal(t, 24.3, got.CGSTAmount)
	assert.Equal(t, 24.3, got.SGSTAmount)
	assert.Equal(t, 0.0, got.IGSTAmount)
	assert.Equal(t, 318.6, got.LineTotal)
}

func TestComputeLineInterState(t *testing.T) {
	got := ComputeLine(sampleLine(), nil, true)

	assert.Equal(t, 48.6, got.IGSTAmount)
	assert.Equal(t, 0.0, got.CGSTAmount)
	assert.Equal(t, 0.0, got.SGSTAmount)
	// Line total does not depend on the regime.
	assert.Equal(t, 318.6, got.LineTotal)
}

func TestComputeLineSplitSumsExactly(t *testing.T) {
	// Odd-cent tax amounts must still split without drift: SGST absorbs
	// the remainder.
	cases := []LineItem{
		{Quantity: 1, UnitPrice: 99.99, CGSTRate: 2.5, SGSTRate: 2.5},
		{Quantity: 7, UnitPrice: 3.33, DiscountPct: 12.5, CGSTRate: 9, SGSTRate: 9},
		{Quantity: 1, UnitPrice: 0.01, CGSTRate: 14, SGSTRate: 14},
		{Quantity: 13, UnitPrice: 17.77, DiscountPct: 3, CGSTRate: 6, SGSTRate: 6},
	}
	for _, c := range cases {
		got := ComputeLine(c, nil, false)
		assert.Equal(t, got.TaxAmount, got.CGSTAmount+got.SGSTAmount+got.IGSTAmount,
			"split must sum to tax for %+v", c)
		assert.Equal(t, got.LineTotal, Round2(got.TaxableAmount+got.TaxAmount))
	}
}

func TestComputeLineIdempotent(t *testing.T) {
	once := ComputeLine(sampleLine(), nil, false)
	twice := ComputeLine(once, nil, false)
	require.Equal(t, once, twice)
}

func TestComputeLineOverridePrecedence(t *testing.T) {
	override := 25.0
	got := ComputeLine(sampleLine(), &override, false)

	// The override replaces the stored per-line percent.
	assert.Equal(t, 25.0, got.DiscountPct)
	assert.Equal(t, 75.0, got.DiscountAmount)
	assert.Equal(t, 225.0, got.TaxableAmount)
}

func TestComputeLineZeroQuantityAccepted(t *testing.T) {
	l := sampleLine()
	l.Quantity = 0
	got := ComputeLine(l, nil, false)

	assert.Equal(t, 0.0, got.GrossAmount)
	assert.Equal(t, 0.0, got.LineTotal)
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, -1.01, Round2(-1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 48.6, Round2(48.6))
}
