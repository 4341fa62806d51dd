package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande (axe fulfillment)
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Statuts de paiement (axe indépendant du fulfillment)
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order est l'unité de paiement côté client : une seule commande par checkout,
// même quand les articles viennent de plusieurs vendeurs. Le découpage par
// vendeur reste dérivable via OrderItem.VendorID.
type Order struct {
	ID                  gocql.UUID    `json:"id"`
	OrderNumber         string        `json:"order_number"`
	CustomerID          string        `json:"customer_id"`
	Status              OrderStatus   `json:"status"`
	PaymentStatus       PaymentStatus `json:"payment_status"`

	// PaymentState est l'état courant de la machine des tentatives de
	// paiement, avancé sous garde conditionnelle. Usage interne.
	PaymentState PaymentEventStatus `json:"-"`
	PaymentMethod       string        `json:"payment_method"`
	ShippingAddressID   gocql.UUID    `json:"shipping_address_id"`
	BillingAddressID    gocql.UUID    `json:"billing_address_id"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`

	// Montants en centimes, figés au commit et revérifiés à la lecture
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`

	Items []OrderItem `json:"items"`

	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// OrderItem est une ligne figée : prix et vendeur sont dénormalisés au moment
// du commit et ne bougent plus, même si le produit change ensuite.
type OrderItem struct {
	ProductID       gocql.UUID `json:"product_id"`
	VendorID        gocql.UUID `json:"vendor_id"`
	Name            string     `json:"name"`
	Quantity        int        `json:"quantity"`
	UnitPriceCents  int64      `json:"unit_price_cents"`
	TotalPriceCents int64      `json:"total_price_cents"`
}

// Statuts d'une tentative de paiement (lignes append-only)
type PaymentEventStatus string

const (
	PaymentEventPending    PaymentEventStatus = "pending"
	PaymentEventProcessing PaymentEventStatus = "processing"
	PaymentEventCompleted  PaymentEventStatus = "completed"
	PaymentEventFailed     PaymentEventStatus = "failed"
	PaymentEventRefunded   PaymentEventStatus = "refunded"
)

// Payment est une ligne d'historique : une tentative échouée suivie d'un
// retry réussi produit deux lignes, jamais une mise à jour en place.
type Payment struct {
	ID            gocql.UUID         `json:"id"`
	OrderID       gocql.UUID         `json:"order_id"`
	Method        string             `json:"method"`
	Reference     string             `json:"reference"`
	TransactionID string             `json:"transaction_id,omitempty"`
	AmountCents   int64              `json:"amount_cents"`
	Status        PaymentEventStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}
