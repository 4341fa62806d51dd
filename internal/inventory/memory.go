package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// MemoryLedger est l'implémentation en mémoire du Ledger, avec la même
// sémantique compare-and-set que la version ScyllaDB. Sert aux tests et au
// mode développement sans cluster.
type MemoryLedger struct {
	mu        sync.Mutex
	products  map[string]*models.ProductInfo
	movements map[string][]models.StockMovement
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		products:  make(map[string]*models.ProductInfo),
		movements: make(map[string][]models.StockMovement),
	}
}

// Seed enregistre un produit dans le catalogue en mémoire.
func (l *MemoryLedger) Seed(p models.ProductInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := p
	l.products[p.ID.String()] = &cp
}

func (l *MemoryLedger) Product(_ context.Context, productID string) (*models.ProductInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (l *MemoryLedger) Reserve(_ context.Context, productID string, qty int, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: p.Stock}
	}

	prev := p.Stock
	p.Stock -= qty
	l.record(p, "sale", -qty, prev, p.Stock, "commande "+orderID, orderID)
	return nil
}

func (l *MemoryLedger) Restore(_ context.Context, productID string, qty int, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[productID]
	if !ok {
		return ErrProductNotFound
	}

	prev := p.Stock
	p.Stock += qty
	l.record(p, "return", qty, prev, p.Stock, "annulation commande "+orderID, orderID)
	return nil
}

func (l *MemoryLedger) Adjust(_ context.Context, productID string, delta int, absolute bool, reason, _ string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}

	prev := p.Stock
	newStock := prev + delta
	movementType := "restock"
	if absolute {
		newStock = delta
		movementType = "adjustment"
	}
	if newStock < 0 {
		return 0, fmt.Errorf("le stock ne peut pas être négatif")
	}

	p.Stock = newStock
	l.record(p, movementType, newStock-prev, prev, newStock, reason, "")
	return newStock, nil
}

func (l *MemoryLedger) Movements(_ context.Context, productID string, limit int) ([]models.StockMovement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	moves := l.movements[productID]
	if limit > 0 && len(moves) > limit {
		moves = moves[:limit]
	}
	out := make([]models.StockMovement, len(moves))
	copy(out, moves)
	return out, nil
}

// OpenAlerts dérive les alertes du stock courant, seuil fixe de 10 comme la
// valeur par défaut du registre Scylla.
func (l *MemoryLedger) OpenAlerts(_ context.Context) ([]models.StockAlert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var alerts []models.StockAlert
	for _, p := range l.products {
		alertType := ""
		switch {
		case p.Stock == 0:
			alertType = "out_of_stock"
		case p.Stock <= 10:
			alertType = "low_stock"
		default:
			continue
		}
		alerts = append(alerts, models.StockAlert{
			ID:             gocql.TimeUUID(),
			ProductID:      p.ID,
			ProductName:    p.Name,
			CurrentStock:   p.Stock,
			ThresholdStock: 10,
			AlertType:      alertType,
			CreatedAt:      time.Now(),
		})
	}
	return alerts, nil
}

func (l *MemoryLedger) record(p *models.ProductInfo, movementType string, qty, prev, newStock int, reason, orderID string) {
	m := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: p.ID,
		Type:      movementType,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  newStock,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if orderID != "" {
		if oid, err := gocql.ParseUUID(orderID); err == nil {
			m.OrderID = &oid
		}
	}
	// plus récent d'abord, comme la requête Scylla
	l.movements[p.ID.String()] = append([]models.StockMovement{m}, l.movements[p.ID.String()]...)
}
