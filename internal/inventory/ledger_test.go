package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

func seedProduct(t *testing.T, l *MemoryLedger, stock int) models.ProductInfo {
	t.Helper()
	p := models.ProductInfo{
		ID:         gocql.TimeUUID(),
		VendorID:   gocql.TimeUUID(),
		Name:       "Clavier mécanique",
		PriceCents: 7990,
		Stock:      stock,
		IsActive:   true,
	}
	l.Seed(p)
	return p
}

func TestReserveDecrementsStock(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 5)

	require.NoError(t, ledger.Reserve(context.Background(), p.ID.String(), 3, "order-1"))

	got, err := ledger.Product(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestReserveInsufficientStock(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 2)

	err := ledger.Reserve(context.Background(), p.ID.String(), 3, "order-1")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	// le stock n'a pas bougé
	got, err := ledger.Product(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.Reserve(context.Background(), p.ID.String(), 1, "order")
		}(i)
	}
	wg.Wait()

	// exactement un gagnant, l'autre reçoit stock insuffisant
	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			var insufficient *InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
			failed++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)

	got, err := ledger.Product(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestStockNeverNegativeUnderLoad(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 10)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ledger.Reserve(context.Background(), p.ID.String(), 1, "order")
		}()
	}
	wg.Wait()

	got, err := ledger.Product(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestRestoreIsExactInverse(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 8)

	require.NoError(t, ledger.Reserve(context.Background(), p.ID.String(), 3, "order-1"))
	require.NoError(t, ledger.Restore(context.Background(), p.ID.String(), 3, "order-1"))

	got, err := ledger.Product(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
}

func TestAdjustRestockAndAbsolute(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 4)

	newStock, err := ledger.Adjust(context.Background(), p.ID.String(), 6, false, "réassort fournisseur", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 10, newStock)

	newStock, err = ledger.Adjust(context.Background(), p.ID.String(), 3, true, "inventaire annuel", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 3, newStock)

	_, err = ledger.Adjust(context.Background(), p.ID.String(), -5, false, "erreur", "admin-1")
	assert.Error(t, err)
}

func TestMovementsAudit(t *testing.T) {
	ledger := NewMemoryLedger()
	p := seedProduct(t, ledger, 5)

	require.NoError(t, ledger.Reserve(context.Background(), p.ID.String(), 2, "order-1"))
	require.NoError(t, ledger.Restore(context.Background(), p.ID.String(), 2, "order-1"))

	moves, err := ledger.Movements(context.Background(), p.ID.String(), 10)
	require.NoError(t, err)
	require.Len(t, moves, 2)

	// plus récent d'abord
	assert.Equal(t, "return", moves[0].Type)
	assert.Equal(t, "sale", moves[1].Type)
	assert.Equal(t, -2, moves[1].Quantity)
	assert.Equal(t, 5, moves[1].PrevStock)
	assert.Equal(t, 3, moves[1].NewStock)
}

func TestUnknownProduct(t *testing.T) {
	ledger := NewMemoryLedger()
	_, err := ledger.Product(context.Background(), "n'existe pas")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
