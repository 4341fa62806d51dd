package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// MemoryRepository implémente Repository en mémoire, pour les tests et le
// mode développement.
type MemoryRepository struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	byNumber map[string]string
	payments map[string][]models.Payment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[string]*models.Order),
		byNumber: make(map[string]string),
		payments: make(map[string][]models.Payment),
	}
}

func (r *MemoryRepository) ReserveOrderNumber(_ context.Context, number string, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[number]; taken {
		return false, nil
	}
	r.byNumber[number] = orderID
	return true, nil
}

func (r *MemoryRepository) ReleaseOrderNumber(_ context.Context, number string, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byNumber[number] == orderID {
		delete(r.byNumber, number)
	}
	return nil
}

func (r *MemoryRepository) CreateOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID.String()] = &cp
	return nil
}

func (r *MemoryRepository) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clone(orderID)
}

func (r *MemoryRepository) GetOrderByNumber(_ context.Context, number string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orderID, ok := r.byNumber[number]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return r.clone(orderID)
}

func (r *MemoryRepository) ListByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			cp := *o
			cp.Items = append([]models.OrderItem(nil), o.Items...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) CompareAndSetStatus(_ context.Context, order *models.Order, from models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID.String()]
	if !ok {
		return false, ErrOrderNotFound
	}
	if stored.Status != from {
		return false, nil
	}
	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	stored.PaidAt = order.PaidAt
	stored.ProcessedAt = order.ProcessedAt
	stored.ShippedAt = order.ShippedAt
	stored.DeliveredAt = order.DeliveredAt
	stored.CancelledAt = order.CancelledAt
	return true, nil
}

func (r *MemoryRepository) CompareAndSetPaymentState(_ context.Context, orderID string, from, to models.PaymentEventStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	current := stored.PaymentState
	if current == "" {
		current = models.PaymentEventPending
	}
	if current != from {
		return false, nil
	}
	stored.PaymentState = to
	return true, nil
}

func (r *MemoryRepository) UpdatePaymentStatus(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID.String()]
	if !ok {
		return ErrOrderNotFound
	}
	stored.PaymentStatus = order.PaymentStatus
	stored.PaidAt = order.PaidAt
	return nil
}

func (r *MemoryRepository) AppendPayment(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := payment.OrderID.String()
	// plus récent d'abord
	r.payments[key] = append([]models.Payment{*payment}, r.payments[key]...)
	return nil
}

func (r *MemoryRepository) ListPayments(_ context.Context, orderID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Payment, len(r.payments[orderID]))
	copy(out, r.payments[orderID])
	return out, nil
}

func (r *MemoryRepository) clone(orderID string) (*models.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp, nil
}
