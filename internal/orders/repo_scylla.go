package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/models"
)

// ScyllaRepository persiste les commandes dans le keyspace orders. Les lignes
// de commande sont figées en colonne JSON dans la ligne orders ; l'unicité du
// numéro passe par un INSERT ... IF NOT EXISTS sur orders_by_number.
type ScyllaRepository struct{}

func NewScyllaRepository() *ScyllaRepository {
	return &ScyllaRepository{}
}

func (r *ScyllaRepository) ReserveOrderNumber(ctx context.Context, number string, orderID string) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return false, err
	}

	applied, err := session.Query(`INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?) IF NOT EXISTS`,
		number, gocql.UUID(oid)).
		WithContext(ctx).
		ScanCAS(nil, nil)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ScyllaRepository) ReleaseOrderNumber(ctx context.Context, number string, orderID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return err
	}

	// Suppression conditionnelle : on ne libère que sa propre réservation.
	_, err = session.Query(`DELETE FROM orders_by_number WHERE order_number = ? IF order_id = ?`,
		number, gocql.UUID(oid)).
		WithContext(ctx).
		ScanCAS(nil)
	return err
}

func (r *ScyllaRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}

	if err := session.Query(`INSERT INTO orders (order_id, order_number, customer_id, status, payment_status,
	        payment_state, payment_method, shipping_address_id, billing_address_id, special_instructions,
	        subtotal_cents, shipping_cents, tax_cents, total_cents, items, created_at)
	        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.CustomerID, string(order.Status), string(order.PaymentStatus),
		string(models.PaymentEventPending), order.PaymentMethod, order.ShippingAddressID, order.BillingAddressID,
		order.SpecialInstructions, order.SubtotalCents, order.ShippingCents, order.TaxCents, order.TotalCents,
		string(itemsJSON), order.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`INSERT INTO orders_by_customer (customer_id, created_at, order_id) VALUES (?, ?, ?)`,
		order.CustomerID, order.CreatedAt, order.ID).
		WithContext(ctx).Exec()
}

func (r *ScyllaRepository) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	return scanOrder(session.Query(`SELECT order_id, order_number, customer_id, status, payment_status,
	        payment_state, payment_method, shipping_address_id, billing_address_id, special_instructions,
	        subtotal_cents, shipping_cents, tax_cents, total_cents, items, created_at,
	        paid_at, processed_at, shipped_at, delivered_at, cancelled_at
	        FROM orders WHERE order_id = ?`, gocql.UUID(oid)).WithContext(ctx))
}

func (r *ScyllaRepository) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var orderID gocql.UUID
	if err := session.Query(`SELECT order_id FROM orders_by_number WHERE order_number = ?`, number).
		WithContext(ctx).Scan(&orderID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return r.GetOrder(ctx, orderID.String())
}

func (r *ScyllaRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_id FROM orders_by_customer WHERE customer_id = ?`, customerID).
		WithContext(ctx).Iter()
	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := r.GetOrder(ctx, oid.String())
		if err != nil {
			if err == ErrOrderNotFound {
				continue
			}
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// CompareAndSetStatus est une LWT : la transition n'est écrite que si le
// statut stocké est resté celui qu'on a lu. Deux annulations concurrentes ne
// peuvent donc gagner qu'une fois.
func (r *ScyllaRepository) CompareAndSetStatus(ctx context.Context, order *models.Order, from models.OrderStatus) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	applied, err := session.Query(`UPDATE orders SET status = ?, payment_status = ?, paid_at = ?,
	        processed_at = ?, shipped_at = ?, delivered_at = ?, cancelled_at = ?
	        WHERE order_id = ? IF status = ?`,
		string(order.Status), string(order.PaymentStatus), order.PaidAt,
		order.ProcessedAt, order.ShippedAt, order.DeliveredAt, order.CancelledAt,
		order.ID, string(from)).
		WithContext(ctx).
		ScanCAS(nil)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ScyllaRepository) CompareAndSetPaymentState(ctx context.Context, orderID string, from, to models.PaymentEventStatus) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return false, ErrOrderNotFound
	}

	applied, err := session.Query(`UPDATE orders SET payment_state = ? WHERE order_id = ? IF payment_state = ?`,
		string(to), gocql.UUID(oid), string(from)).
		WithContext(ctx).
		ScanCAS(nil)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ScyllaRepository) UpdatePaymentStatus(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(`UPDATE orders SET payment_status = ?, paid_at = ? WHERE order_id = ?`,
		string(order.PaymentStatus), order.PaidAt, order.ID).
		WithContext(ctx).Exec()
}

func (r *ScyllaRepository) AppendPayment(ctx context.Context, payment *models.Payment) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	return session.Query(`INSERT INTO payments (order_id, created_at, id, method, reference,
	        transaction_id, amount_cents, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.OrderID, payment.CreatedAt, payment.ID, payment.Method, payment.Reference,
		payment.TransactionID, payment.AmountCents, string(payment.Status)).
		WithContext(ctx).Exec()
}

func (r *ScyllaRepository) ListPayments(ctx context.Context, orderID string) ([]models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	iter := session.Query(`SELECT order_id, created_at, id, method, reference, transaction_id, amount_cents, status
	        FROM payments WHERE order_id = ?`, gocql.UUID(oid)).
		WithContext(ctx).Iter()
	defer iter.Close()

	var payments []models.Payment
	var p models.Payment
	var status string
	for iter.Scan(&p.OrderID, &p.CreatedAt, &p.ID, &p.Method, &p.Reference, &p.TransactionID, &p.AmountCents, &status) {
		p.Status = models.PaymentEventStatus(status)
		payments = append(payments, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return payments, nil
}

func scanOrder(q *gocql.Query) (*models.Order, error) {
	var o models.Order
	var status, paymentStatus, paymentState, itemsJSON string
	var createdAt time.Time

	err := q.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &status, &paymentStatus,
		&paymentState, &o.PaymentMethod, &o.ShippingAddressID, &o.BillingAddressID, &o.SpecialInstructions,
		&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents, &itemsJSON, &createdAt,
		&o.PaidAt, &o.ProcessedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	o.PaymentState = models.PaymentEventStatus(paymentState)
	o.CreatedAt = createdAt
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, err
		}
	}
	return &o, nil
}
