package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotalsMultiVendor(t *testing.T) {
	// 2 articles vendeur A (1 × 10 000) + 1 article vendeur B (2 × 5 000)
	lines := []Line{
		{UnitPriceCents: 10000, Quantity: 1, VendorID: "vendor-a"},
		{UnitPriceCents: 5000, Quantity: 2, VendorID: "vendor-b"},
	}

	totals := ComputeTotals(lines, FlatRate{Cents: 1000}, 1800)

	require.Equal(t, int64(20000), totals.SubtotalCents)
	require.Equal(t, int64(1000), totals.ShippingCents)
	require.Equal(t, int64(3600), totals.TaxCents)
	require.Equal(t, int64(24600), totals.TotalCents)
}

func TestComputeTotalsInvariant(t *testing.T) {
	lines := []Line{
		{UnitPriceCents: 333, Quantity: 3, VendorID: "v1"},
		{UnitPriceCents: 199, Quantity: 7, VendorID: "v2"},
	}

	totals := ComputeTotals(lines, FlatRate{Cents: 599}, 1800)
	assert.Equal(t, totals.SubtotalCents+totals.ShippingCents+totals.TaxCents, totals.TotalCents)
}

func TestComputeTotalsTaxRoundingOnce(t *testing.T) {
	// 3 × 3,33€ = 9,99€ ; 18% de 999 = 179,82 → arrondi une seule fois à 180
	lines := []Line{{UnitPriceCents: 333, Quantity: 3, VendorID: "v1"}}

	totals := ComputeTotals(lines, FlatRate{}, 1800)
	assert.Equal(t, int64(999), totals.SubtotalCents)
	assert.Equal(t, int64(180), totals.TaxCents)
}

func TestComputeTotalsZeroTax(t *testing.T) {
	lines := []Line{{UnitPriceCents: 1000, Quantity: 1, VendorID: "v1"}}
	totals := ComputeTotals(lines, FlatRate{}, 0)
	assert.Zero(t, totals.TaxCents)
	assert.Equal(t, int64(1000), totals.TotalCents)
}

func TestFreeAboveThreshold(t *testing.T) {
	rule := FreeAboveThreshold{Cents: 599, ThresholdCents: 5000}

	under := ComputeTotals([]Line{{UnitPriceCents: 4999, Quantity: 1, VendorID: "v1"}}, rule, 0)
	assert.Equal(t, int64(599), under.ShippingCents)

	over := ComputeTotals([]Line{{UnitPriceCents: 5000, Quantity: 1, VendorID: "v1"}}, rule, 0)
	assert.Zero(t, over.ShippingCents)
}

func TestPerVendorFlat(t *testing.T) {
	rule := PerVendorFlat{CentsPerVendor: 400}
	lines := []Line{
		{UnitPriceCents: 100, Quantity: 1, VendorID: "a"},
		{UnitPriceCents: 100, Quantity: 1, VendorID: "a"},
		{UnitPriceCents: 100, Quantity: 1, VendorID: "b"},
	}

	totals := ComputeTotals(lines, rule, 0)
	assert.Equal(t, int64(800), totals.ShippingCents)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, FlatRate{Cents: 500}, 1800)
	assert.Equal(t, int64(0), totals.SubtotalCents)
	assert.Equal(t, int64(500), totals.ShippingCents)
	assert.Equal(t, int64(0), totals.TaxCents)
	assert.Equal(t, int64(500), totals.TotalCents)
}
