package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elisee98/markethub-sub001/internal/cart"
	"github.com/Elisee98/markethub-sub001/internal/events"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/pricing"
)

type fixture struct {
	svc      *Service
	repo     *MemoryRepository
	ledger   *inventory.MemoryLedger
	carts    *cart.MemoryStore
	recorder *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewMemoryRepository()
	ledger := inventory.NewMemoryLedger()
	carts := cart.NewMemoryStore()
	recorder := &events.Recorder{}
	svc := NewService(repo, ledger, carts, NewMemoryVendorDirectory(), recorder,
		pricing.FlatRate{Cents: 1000}, 1800)
	return &fixture{svc: svc, repo: repo, ledger: ledger, carts: carts, recorder: recorder}
}

func (f *fixture) seedProduct(name string, priceCents int64, stock int, active bool) models.ProductInfo {
	p := models.ProductInfo{
		ID:         gocql.TimeUUID(),
		VendorID:   gocql.TimeUUID(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   active,
	}
	f.ledger.Seed(p)
	return p
}

func (f *fixture) fillCart(t *testing.T, owner string, entries ...models.CartItem) {
	t.Helper()
	require.NoError(t, f.carts.Save(context.Background(), owner, entries))
}

func commitReq(owner, customer string) CommitRequest {
	return CommitRequest{
		OwnerKey:          owner,
		CustomerID:        customer,
		ShippingAddressID: uuid.NewString(),
		BillingAddressID:  uuid.NewString(),
		PaymentMethod:     "card",
	}
}

func TestCommitMultiVendorScenario(t *testing.T) {
	f := newFixture(t)
	prodA := f.seedProduct("Bureau", 10000, 5, true)   // vendeur A, 1 × 10 000
	prodB := f.seedProduct("Étagère", 5000, 5, true)   // vendeur B, 2 × 5 000
	owner := cart.UserKey("u1")
	f.fillCart(t, owner,
		models.CartItem{ProductID: prodA.ID.String(), Quantity: 1},
		models.CartItem{ProductID: prodB.ID.String(), Quantity: 2},
	)

	order, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))
	require.NoError(t, err)

	assert.Equal(t, int64(20000), order.SubtotalCents)
	assert.Equal(t, int64(1000), order.ShippingCents)
	assert.Equal(t, int64(3600), order.TaxCents)
	assert.Equal(t, int64(24600), order.TotalCents)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Regexp(t, `^MH-\d{8}-[2-9A-Z]{6}$`, order.OrderNumber)

	// invariant financier
	var lineSum int64
	for _, item := range order.Items {
		lineSum += item.TotalPriceCents
	}
	assert.Equal(t, order.SubtotalCents, lineSum)
	assert.Equal(t, order.TotalCents, order.SubtotalCents+order.ShippingCents+order.TaxCents)

	// stock décrémenté exactement une fois
	a, _ := f.ledger.Product(context.Background(), prodA.ID.String())
	b, _ := f.ledger.Product(context.Background(), prodB.ID.String())
	assert.Equal(t, 4, a.Stock)
	assert.Equal(t, 3, b.Stock)

	// panier vidé, événement émis
	items, _ := f.carts.List(context.Background(), owner)
	assert.Empty(t, items)
	require.Len(t, f.recorder.ByType(events.OrderPlaced), 1)

	// la facture découpe en deux sections vendeur de 10 000 chacune
	inv, err := f.svc.Invoice(context.Background(), order.ID.String())
	require.NoError(t, err)
	require.Len(t, inv.VendorGroups, 2)
	for _, g := range inv.VendorGroups {
		assert.Equal(t, int64(10000), g.SubtotalCents)
	}
}

func TestCommitEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Commit(context.Background(), commitReq(cart.UserKey("u1"), "u1"))
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCommitInsufficientStockIdentifiesProduct(t *testing.T) {
	f := newFixture(t)
	ok := f.seedProduct("Bureau", 10000, 5, true)
	short := f.seedProduct("Étagère", 5000, 1, true)
	owner := cart.UserKey("u1")
	f.fillCart(t, owner,
		models.CartItem{ProductID: ok.ID.String(), Quantity: 1},
		models.CartItem{ProductID: short.ID.String(), Quantity: 3},
	)

	_, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, short.ID.String(), insufficient.ProductID)

	// tout ou rien : aucun stock touché, pas de commande, panier conservé
	a, _ := f.ledger.Product(context.Background(), ok.ID.String())
	assert.Equal(t, 5, a.Stock)
	items, _ := f.carts.List(context.Background(), owner)
	assert.Len(t, items, 2)
}

func TestCommitInactiveProductAborts(t *testing.T) {
	f := newFixture(t)
	active := f.seedProduct("Bureau", 10000, 5, true)
	inactive := f.seedProduct("Étagère", 5000, 5, false)
	owner := cart.UserKey("u1")
	f.fillCart(t, owner,
		models.CartItem{ProductID: active.ID.String(), Quantity: 1},
		models.CartItem{ProductID: inactive.ID.String(), Quantity: 1},
	)

	_, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))

	var inactiveErr *InactiveProductError
	require.ErrorAs(t, err, &inactiveErr)
	a, _ := f.ledger.Product(context.Background(), active.ID.String())
	assert.Equal(t, 5, a.Stock)
}

// conflictLedger simule un décrément conditionnel qui perd la course un
// nombre donné de fois avant de passer.
type conflictLedger struct {
	inventory.Ledger
	mu        sync.Mutex
	conflicts map[string]int
}

func (c *conflictLedger) Reserve(ctx context.Context, productID string, qty int, orderID string) error {
	c.mu.Lock()
	if c.conflicts[productID] > 0 {
		c.conflicts[productID]--
		c.mu.Unlock()
		return inventory.ErrStockConflict
	}
	c.mu.Unlock()
	return c.Ledger.Reserve(ctx, productID, qty, orderID)
}

func TestCommitRetriesOnceOnStockConflict(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 5, true)
	owner := cart.UserKey("u1")
	f.fillCart(t, owner, models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	// un seul conflit : le retry automatique doit suffire
	f.svc.ledger = &conflictLedger{Ledger: f.ledger, conflicts: map[string]int{p.ID.String(): 1}}

	order, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestCommitCompensatesOnPersistentConflict(t *testing.T) {
	f := newFixture(t)
	first := f.seedProduct("Bureau", 10000, 5, true)
	contested := f.seedProduct("Étagère", 5000, 5, true)
	owner := cart.UserKey("u1")
	f.fillCart(t, owner,
		models.CartItem{ProductID: first.ID.String(), Quantity: 2},
		models.CartItem{ProductID: contested.ID.String(), Quantity: 1},
	)

	// deux conflits : le retry unique ne suffit pas, l'erreur remonte
	f.svc.ledger = &conflictLedger{Ledger: f.ledger, conflicts: map[string]int{contested.ID.String(): 2}}

	_, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))
	require.ErrorIs(t, err, inventory.ErrStockConflict)

	// le premier article, déjà réservé, a été remis en stock
	p, _ := f.ledger.Product(context.Background(), first.ID.String())
	assert.Equal(t, 5, p.Stock)
}

func TestConcurrentCommitsLastUnit(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Pièce unique", 99000, 1, true)

	owners := []string{cart.UserKey("u1"), cart.UserKey("u2")}
	for _, owner := range owners {
		f.fillCart(t, owner, models.CartItem{ProductID: p.ID.String(), Quantity: 1})
	}

	customers := []string{"u1", "u2"}
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range owners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Commit(context.Background(), commitReq(owners[i], customers[i]))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var insufficient *inventory.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	got, _ := f.ledger.Product(context.Background(), p.ID.String())
	assert.Equal(t, 0, got.Stock)
}

func placeOrder(t *testing.T, f *fixture, customer string, entries ...models.CartItem) *models.Order {
	t.Helper()
	owner := cart.UserKey(customer)
	f.fillCart(t, owner, entries...)
	order, err := f.svc.Commit(context.Background(), commitReq(owner, customer))
	require.NoError(t, err)
	return order
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 3})

	// passer en processing puis annuler
	_, err := f.svc.Transition(context.Background(), order.ID.String(), models.OrderProcessing, "admin")
	require.NoError(t, err)
	cancelled, err := f.svc.Transition(context.Background(), order.ID.String(), models.OrderCancelled, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	got, _ := f.ledger.Product(context.Background(), p.ID.String())
	assert.Equal(t, 10, got.Stock) // 10 - 3 + 3

	// annuler deux fois = no-op, pas de double restock
	again, err := f.svc.Transition(context.Background(), order.ID.String(), models.OrderCancelled, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, again.Status)
	got, _ = f.ledger.Product(context.Background(), p.ID.String())
	assert.Equal(t, 10, got.Stock)

	require.Len(t, f.recorder.ByType(events.OrderCancelled), 1)
}

func TestConcurrentCancelsRestockOnce(t *testing.T) {
	// deux annulations simultanées lisent toutes les deux "processing" ;
	// seule celle qui gagne l'écriture conditionnelle doit remettre en stock
	for iter := 0; iter < 50; iter++ {
		f := newFixture(t)
		p := f.seedProduct("Bureau", 10000, 10, true)
		order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 3})
		_, err := f.svc.Transition(context.Background(), order.ID.String(), models.OrderProcessing, "admin")
		require.NoError(t, err)

		start := make(chan struct{})
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = f.svc.Transition(context.Background(), order.ID.String(), models.OrderCancelled, "admin")
			}(i)
		}
		close(start)
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "annulation %d", i)
		}

		got, _ := f.ledger.Product(context.Background(), p.ID.String())
		require.Equal(t, 10, got.Stock, "itération %d: un seul restock attendu", iter)
		require.Len(t, f.recorder.ByType(events.OrderCancelled), 1)
	}
}

func TestIllegalTransitionsLeaveStateUntouched(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	// pending → shipped saute une étape
	_, err := f.svc.Transition(context.Background(), order.ID.String(), models.OrderShipped, "admin")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	stored, err := f.svc.Get(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)

	// livrer puis tenter d'annuler
	for _, to := range []models.OrderStatus{models.OrderProcessing, models.OrderShipped, models.OrderDelivered} {
		_, err = f.svc.Transition(context.Background(), order.ID.String(), to, "admin")
		require.NoError(t, err)
	}
	_, err = f.svc.Transition(context.Background(), order.ID.String(), models.OrderCancelled, "admin")
	require.ErrorAs(t, err, &invalid)

	stored, _ = f.svc.Get(context.Background(), order.ID.String())
	assert.Equal(t, models.OrderDelivered, stored.Status)
}

func TestCancelRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	_, err := f.svc.Cancel(context.Background(), order.ID.String(), "u2")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentCompletedAdvancesOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	updated, err := f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventCompleted, "pi_123", order.TotalCents, "txn_1")
	require.NoError(t, err)

	// paiement confirmé ⇒ préparation lancée, couplage explicite
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, updated.Status)
	require.NotNil(t, updated.PaidAt)
	require.NotNil(t, updated.ProcessedAt)

	payments, err := f.svc.Payments(context.Background(), order.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentEventCompleted, payments[0].Status)
	assert.Equal(t, order.TotalCents, payments[0].AmountCents)

	require.Len(t, f.recorder.ByType(events.PaymentCompleted), 1)
}

func TestPaymentMismatchRejected(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	_, err := f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventCompleted, "pi_123", order.TotalCents-1, "txn_1")

	var mismatch *PaymentMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, order.TotalCents, mismatch.ExpectedCents)

	// rien n'est enregistré, la commande ne bouge pas
	payments, _ := f.svc.Payments(context.Background(), order.ID.String())
	assert.Empty(t, payments)
	stored, _ := f.svc.Get(context.Background(), order.ID.String())
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestFailedThenRetriedPaymentKeepsHistory(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	_, err := f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventFailed, "pi_1", order.TotalCents, "")
	require.NoError(t, err)
	stored, _ := f.svc.Get(context.Background(), order.ID.String())
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)

	_, err = f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventCompleted, "pi_2", order.TotalCents, "txn_2")
	require.NoError(t, err)

	// deux lignes : historique append-only, jamais d'écrasement
	payments, _ := f.svc.Payments(context.Background(), order.ID.String())
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentEventCompleted, payments[0].Status)
	assert.Equal(t, models.PaymentEventFailed, payments[1].Status)
}

func TestRefundOnlyAfterCompleted(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	_, err := f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventRefunded, "pi_1", order.TotalCents, "")
	var invalid *InvalidPaymentTransitionError
	require.ErrorAs(t, err, &invalid)

	_, err = f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventCompleted, "pi_1", order.TotalCents, "txn_1")
	require.NoError(t, err)

	updated, err := f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
		models.PaymentEventRefunded, "pi_1", order.TotalCents, "txn_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}

func TestDuplicateWebhookDeliveriesRecordOnePayment(t *testing.T) {
	// la passerelle relivre le même webhook en parallèle : une seule ligne
	// completed doit être enregistrée, l'autre livraison est rejetée en doublon
	for iter := 0; iter < 50; iter++ {
		f := newFixture(t)
		p := f.seedProduct("Bureau", 10000, 10, true)
		order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

		start := make(chan struct{})
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = f.svc.RecordPaymentEvent(context.Background(), order.ID.String(),
					models.PaymentEventCompleted, "pi_123", order.TotalCents, "txn_1")
			}(i)
		}
		close(start)
		wg.Wait()

		var won, dup int
		for _, err := range errs {
			if err == nil {
				won++
				continue
			}
			var invalid *InvalidPaymentTransitionError
			require.ErrorAs(t, err, &invalid)
			dup++
		}
		require.Equal(t, 1, won, "itération %d", iter)
		require.Equal(t, 1, dup, "itération %d", iter)

		payments, _ := f.svc.Payments(context.Background(), order.ID.String())
		require.Len(t, payments, 1, "itération %d: une seule ligne completed", iter)
		require.Len(t, f.recorder.ByType(events.PaymentCompleted), 1)
	}
}

func TestFailedCommitReleasesOrderNumber(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 5, true)
	owner := cart.UserKey("u1")
	f.fillCart(t, owner, models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	// conflit persistant : le commit échoue après la réservation du numéro
	f.svc.ledger = &conflictLedger{Ledger: f.ledger, conflicts: map[string]int{p.ID.String(): 2}}

	_, err := f.svc.Commit(context.Background(), commitReq(owner, "u1"))
	require.ErrorIs(t, err, inventory.ErrStockConflict)

	// le numéro réservé a été rendu, rien ne traîne dans l'index
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	assert.Empty(t, f.repo.byNumber)
}

func TestReleaseOrderNumberIgnoresForeignReservation(t *testing.T) {
	repo := NewMemoryRepository()
	ok, err := repo.ReserveOrderNumber(context.Background(), "MH-20260831-ABCDEF", "order-1")
	require.NoError(t, err)
	require.True(t, ok)

	// une autre commande ne peut pas libérer cette réservation
	require.NoError(t, repo.ReleaseOrderNumber(context.Background(), "MH-20260831-ABCDEF", "order-2"))
	ok, err = repo.ReserveOrderNumber(context.Background(), "MH-20260831-ABCDEF", "order-3")
	require.NoError(t, err)
	assert.False(t, ok)

	// le titulaire, lui, peut
	require.NoError(t, repo.ReleaseOrderNumber(context.Background(), "MH-20260831-ABCDEF", "order-1"))
	ok, err = repo.ReserveOrderNumber(context.Background(), "MH-20260831-ABCDEF", "order-3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFrozenPriceSurvivesCatalogChange(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("Bureau", 10000, 10, true)
	order := placeOrder(t, f, "u1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})

	// le prix catalogue change après le commit
	p.PriceCents = 15000
	f.ledger.Seed(p)

	stored, err := f.svc.Get(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), stored.Items[0].UnitPriceCents)
}
