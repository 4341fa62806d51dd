package cart

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

func newTestService(t *testing.T) (*Service, *inventory.MemoryLedger) {
	t.Helper()
	ledger := inventory.NewMemoryLedger()
	return NewService(NewMemoryStore(), ledger), ledger
}

func seed(ledger *inventory.MemoryLedger, name string, priceCents int64, stock int, active bool) models.ProductInfo {
	p := models.ProductInfo{
		ID:         gocql.TimeUUID(),
		VendorID:   gocql.TimeUUID(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   active,
	}
	ledger.Seed(p)
	return p
}

func TestAddItemFreezesNothing(t *testing.T) {
	svc, ledger := newTestService(t)
	p := seed(ledger, "Lampe", 2500, 10, true)
	owner := UserKey("u1")

	items, err := svc.AddItem(context.Background(), owner, p.ID.String(), 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(2500), items[0].UnitPriceCents)
	assert.Equal(t, p.VendorID.String(), items[0].VendorID)
}

func TestAddItemCumulatesQuantity(t *testing.T) {
	svc, ledger := newTestService(t)
	p := seed(ledger, "Lampe", 2500, 10, true)
	owner := UserKey("u1")

	_, err := svc.AddItem(context.Background(), owner, p.ID.String(), 2)
	require.NoError(t, err)
	items, err := svc.AddItem(context.Background(), owner, p.ID.String(), 3)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItemAdvisoryStockCheck(t *testing.T) {
	svc, ledger := newTestService(t)
	p := seed(ledger, "Lampe", 2500, 3, true)
	owner := UserKey("u1")

	_, err := svc.AddItem(context.Background(), owner, p.ID.String(), 2)
	require.NoError(t, err)

	// 2 déjà au panier + 2 demandés > 3 en stock
	_, err = svc.AddItem(context.Background(), owner, p.ID.String(), 2)
	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Requested)
}

func TestAddItemInactiveProduct(t *testing.T) {
	svc, ledger := newTestService(t)
	p := seed(ledger, "Lampe", 2500, 3, false)

	_, err := svc.AddItem(context.Background(), UserKey("u1"), p.ID.String(), 1)
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestUpdateQtyAndRemove(t *testing.T) {
	svc, ledger := newTestService(t)
	p := seed(ledger, "Lampe", 2500, 10, true)
	owner := UserKey("u1")

	_, err := svc.AddItem(context.Background(), owner, p.ID.String(), 2)
	require.NoError(t, err)

	items, err := svc.UpdateQty(context.Background(), owner, p.ID.String(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, items[0].Quantity)

	_, err = svc.UpdateQty(context.Background(), owner, "inconnu", 1)
	assert.Error(t, err)

	items, err = svc.RemoveItem(context.Background(), owner, p.ID.String())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMergeLastWriteWinsPerProduct(t *testing.T) {
	svc, ledger := newTestService(t)
	shared := seed(ledger, "Lampe", 2500, 20, true)
	guestOnly := seed(ledger, "Tapis", 4900, 20, true)
	userOnly := seed(ledger, "Chaise", 8900, 20, true)

	guest := GuestKey("sess-42")
	user := UserKey("u1")

	_, err := svc.AddItem(context.Background(), user, shared.ID.String(), 5)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), user, userOnly.ID.String(), 1)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), guest, shared.ID.String(), 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), guest, guestOnly.ID.String(), 3)
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), guest, user)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	byProduct := map[string]int{}
	for _, item := range merged {
		byProduct[item.ProductID] = item.Quantity
	}
	// l'article invité remplace (2), les quantités ne sont pas sommées (pas 7)
	assert.Equal(t, 2, byProduct[shared.ID.String()])
	assert.Equal(t, 3, byProduct[guestOnly.ID.String()])
	assert.Equal(t, 1, byProduct[userOnly.ID.String()])

	// le panier invité est vidé après fusion
	guestItems, err := svc.List(context.Background(), guest)
	require.NoError(t, err)
	assert.Empty(t, guestItems)
}

func TestReorderUsesCurrentPriceAndSkips(t *testing.T) {
	svc, ledger := newTestService(t)
	available := seed(ledger, "Lampe", 3000, 10, true) // prix courant 3000
	inactive := seed(ledger, "Tapis", 4900, 10, false)
	outOfStock := seed(ledger, "Chaise", 8900, 0, true)

	order := &models.Order{
		Items: []models.OrderItem{
			{ProductID: available.ID, Name: "Lampe", Quantity: 2, UnitPriceCents: 2500}, // prix historique 2500
			{ProductID: inactive.ID, Name: "Tapis", Quantity: 1, UnitPriceCents: 4900},
			{ProductID: outOfStock.ID, Name: "Chaise", Quantity: 1, UnitPriceCents: 8900},
		},
	}

	items, skipped, err := svc.Reorder(context.Background(), UserKey("u1"), order)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, int64(3000), items[0].UnitPriceCents) // jamais le prix figé historique

	require.Len(t, skipped, 2)
	reasons := map[string]string{}
	for _, s := range skipped {
		reasons[s.ProductID] = s.Reason
	}
	assert.Equal(t, "produit désactivé", reasons[inactive.ID.String()])
	assert.Equal(t, "rupture de stock", reasons[outOfStock.ID.String()])
}

func TestReorderCapsAtAvailableStock(t *testing.T) {
	svc, ledger := newTestService(t)
	scarce := seed(ledger, "Lampe", 3000, 2, true)

	order := &models.Order{
		Items: []models.OrderItem{
			{ProductID: scarce.ID, Name: "Lampe", Quantity: 5, UnitPriceCents: 3000},
		},
	}

	items, skipped, err := svc.Reorder(context.Background(), UserKey("u1"), order)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}
