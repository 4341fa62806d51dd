package orders

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

func twoVendorOrder(t *testing.T) (*models.Order, gocql.UUID, gocql.UUID) {
	t.Helper()
	vendorA := gocql.TimeUUID()
	vendorB := gocql.TimeUUID()

	order := &models.Order{
		ID:          gocql.TimeUUID(),
		OrderNumber: "MH-20260831-TEST01",
		CustomerID:  "client-1",
		CreatedAt:   time.Now(),
		Items: []models.OrderItem{
			{ProductID: gocql.TimeUUID(), VendorID: vendorA, Name: "Bureau", Quantity: 1, UnitPriceCents: 10000, TotalPriceCents: 10000},
			{ProductID: gocql.TimeUUID(), VendorID: vendorB, Name: "Étagère", Quantity: 2, UnitPriceCents: 5000, TotalPriceCents: 10000},
		},
		SubtotalCents: 20000,
		ShippingCents: 1000,
		TaxCents:      3600,
		TotalCents:    24600,
	}
	return order, vendorA, vendorB
}

func TestComposeInvoiceGroupsByVendor(t *testing.T) {
	order, vendorA, vendorB := twoVendorOrder(t)

	dir := NewMemoryVendorDirectory()
	storeName := "La Boutique d'Alice"
	dir.Seed(models.Vendor{ID: vendorA, Username: "alice", StoreName: &storeName})
	dir.Seed(models.Vendor{ID: vendorB, Username: "bob"}) // pas de nom de boutique

	inv, err := ComposeInvoice(context.Background(), order, dir)
	require.NoError(t, err)

	require.Len(t, inv.VendorGroups, 2)
	bySubtotal := map[string]int64{}
	names := map[string]string{}
	for _, g := range inv.VendorGroups {
		bySubtotal[g.VendorID] = g.SubtotalCents
		names[g.VendorID] = g.VendorName
	}

	assert.Equal(t, int64(10000), bySubtotal[vendorA.String()])
	assert.Equal(t, int64(10000), bySubtotal[vendorB.String()])
	assert.Equal(t, "La Boutique d'Alice", names[vendorA.String()])
	assert.Equal(t, "bob", names[vendorB.String()]) // repli sur le username

	assert.Equal(t, int64(24600), inv.Totals.TotalCents)
}

func TestComposeInvoiceGroupSubtotalsEqualLines(t *testing.T) {
	order, _, _ := twoVendorOrder(t)

	inv, err := ComposeInvoice(context.Background(), order, nil)
	require.NoError(t, err)

	var groupSum int64
	for _, g := range inv.VendorGroups {
		var lineSum int64
		for _, item := range g.Items {
			lineSum += item.TotalPriceCents
		}
		assert.Equal(t, lineSum, g.SubtotalCents)
		groupSum += g.SubtotalCents
	}
	assert.Equal(t, inv.Totals.SubtotalCents, groupSum)
}

func TestComposeInvoiceRejectsStaleSubtotal(t *testing.T) {
	order, _, _ := twoVendorOrder(t)
	order.SubtotalCents = 99999 // champ périmé

	_, err := ComposeInvoice(context.Background(), order, nil)
	assert.Error(t, err)
}

func TestComposeInvoiceRejectsBrokenTotal(t *testing.T) {
	order, _, _ := twoVendorOrder(t)
	order.TotalCents = 20000 // ≠ sous-total + port + taxe

	_, err := ComposeInvoice(context.Background(), order, nil)
	assert.Error(t, err)
}

func TestComposeInvoiceToleratesMissingVendorProfile(t *testing.T) {
	order, _, _ := twoVendorOrder(t)

	// annuaire vide : la composition ne doit pas échouer pour autant
	inv, err := ComposeInvoice(context.Background(), order, NewMemoryVendorDirectory())
	require.NoError(t, err)
	for _, g := range inv.VendorGroups {
		assert.NotEmpty(t, g.VendorName)
	}
}
