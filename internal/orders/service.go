// Package orders est le moteur du cycle de commande : transformer un panier
// multi-vendeurs en commande durable et découpée, suivre son état jusqu'à la
// livraison, et dériver les vues clientes (facture, suivi) de cet état.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Elisee98/markethub-sub001/internal/events"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/pricing"
)

// CartSource est la vue du panier dont le commit a besoin : lire puis vider.
type CartSource interface {
	List(ctx context.Context, ownerKey string) ([]models.CartItem, error)
	Clear(ctx context.Context, ownerKey string) error
}

// Service orchestre commit, transitions de statut et événements de paiement.
type Service struct {
	repo      Repository
	ledger    inventory.Ledger
	carts     CartSource
	vendors   VendorDirectory
	publisher events.Publisher

	shippingRule pricing.ShippingRule
	taxRateBps   int64

	now func() time.Time
}

func NewService(repo Repository, ledger inventory.Ledger, carts CartSource,
	vendors VendorDirectory, publisher events.Publisher,
	shippingRule pricing.ShippingRule, taxRateBps int64) *Service {

	return &Service{
		repo:         repo,
		ledger:       ledger,
		carts:        carts,
		vendors:      vendors,
		publisher:    publisher,
		shippingRule: shippingRule,
		taxRateBps:   taxRateBps,
		now:          time.Now,
	}
}

// CommitRequest porte les paramètres du checkout.
type CommitRequest struct {
	OwnerKey            string
	CustomerID          string
	ShippingAddressID   string
	BillingAddressID    string
	PaymentMethod       string
	SpecialInstructions string
}

// Commit transforme le panier en commande : revalidation de chaque article
// (produit actif, stock suffisant — la vérification qui fait foi), gel des
// prix, décrément du stock sous garde conditionnelle, et une seule commande
// quel que soit le nombre de vendeurs. Tout ou rien : le moindre échec annule
// le commit entier et remet en stock ce qui avait déjà été réservé.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*models.Order, error) {
	cartItems, err := s.carts.List(ctx, req.OwnerKey)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	shipAddr, err := uuid.Parse(req.ShippingAddressID)
	if err != nil {
		return nil, fmt.Errorf("adresse de livraison invalide: %w", err)
	}
	billAddr, err := uuid.Parse(req.BillingAddressID)
	if err != nil {
		return nil, fmt.Errorf("adresse de facturation invalide: %w", err)
	}

	// Revalidation autoritaire : le stock a pu bouger depuis l'ajout au
	// panier, et le prix figé est le prix courant, pas celui de l'aperçu.
	orderItems := make([]models.OrderItem, 0, len(cartItems))
	lines := make([]pricing.Line, 0, len(cartItems))
	for _, item := range cartItems {
		p, err := s.ledger.Product(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, &InactiveProductError{ProductID: item.ProductID, Name: p.Name}
		}
		if p.Stock < item.Quantity {
			return nil, &inventory.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: p.Stock,
			}
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID:       p.ID,
			VendorID:        p.VendorID,
			Name:            p.Name,
			Quantity:        item.Quantity,
			UnitPriceCents:  p.PriceCents,
			TotalPriceCents: p.PriceCents * int64(item.Quantity),
		})
		lines = append(lines, pricing.Line{
			UnitPriceCents: p.PriceCents,
			Quantity:       item.Quantity,
			VendorID:       p.VendorID.String(),
		})
	}

	totals := pricing.ComputeTotals(lines, s.shippingRule, s.taxRateBps)
	now := s.now()

	order := &models.Order{
		ID:                  gocql.TimeUUID(),
		CustomerID:          req.CustomerID,
		Status:              models.OrderPending,
		PaymentStatus:       models.PaymentPending,
		PaymentMethod:       req.PaymentMethod,
		ShippingAddressID:   gocql.UUID(shipAddr),
		BillingAddressID:    gocql.UUID(billAddr),
		SpecialInstructions: req.SpecialInstructions,
		SubtotalCents:       totals.SubtotalCents,
		ShippingCents:       totals.ShippingCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		Items:               orderItems,
		CreatedAt:           now,
	}

	if err := s.assignOrderNumber(ctx, order, now); err != nil {
		return nil, err
	}

	// Décrément du stock, article par article, avec compensation : si le
	// n-ième échoue, tout ce qui précède est remis en stock.
	reserved := make([]models.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		if err := s.reserveWithRetry(ctx, item, order.ID.String()); err != nil {
			s.rollbackReservations(ctx, reserved, order.ID.String())
			s.releaseOrderNumber(ctx, order)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.rollbackReservations(ctx, reserved, order.ID.String())
		s.releaseOrderNumber(ctx, order)
		return nil, err
	}

	if err := s.carts.Clear(ctx, req.OwnerKey); err != nil {
		log.Printf("⚠️ Erreur suppression panier %s après commit: %v", req.OwnerKey, err)
	}

	s.publish(ctx, events.Event{
		Type:        events.OrderPlaced,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      string(order.Status),
		TotalCents:  order.TotalCents,
	})

	log.Printf("📦 Commande %s enregistrée (%d articles, %d vendeurs, %.2f€)",
		order.OrderNumber, len(order.Items), countVendors(order.Items), float64(order.TotalCents)/100)
	return order, nil
}

// reserveWithRetry réessaie une fois, automatiquement, sur conflit CAS —
// et une seule : tout autre échec remonte immédiatement.
func (s *Service) reserveWithRetry(ctx context.Context, item models.OrderItem, orderID string) error {
	err := s.ledger.Reserve(ctx, item.ProductID.String(), item.Quantity, orderID)
	if errors.Is(err, inventory.ErrStockConflict) {
		err = s.ledger.Reserve(ctx, item.ProductID.String(), item.Quantity, orderID)
	}
	return err
}

func (s *Service) rollbackReservations(ctx context.Context, reserved []models.OrderItem, orderID string) {
	for _, item := range reserved {
		if err := s.ledger.Restore(ctx, item.ProductID.String(), item.Quantity, orderID); err != nil {
			log.Printf("❌ Échec remise en stock %s ×%d (commande %s): %v",
				item.ProductID, item.Quantity, orderID, err)
		}
	}
}

// releaseOrderNumber rend le numéro réservé quand le commit échoue après la
// réservation, pour ne pas consommer de numéros sur des commandes mort-nées.
func (s *Service) releaseOrderNumber(ctx context.Context, order *models.Order) {
	if order.OrderNumber == "" {
		return
	}
	if err := s.repo.ReleaseOrderNumber(ctx, order.OrderNumber, order.ID.String()); err != nil {
		log.Printf("⚠️ Numéro %s non libéré après échec du commit: %v", order.OrderNumber, err)
	}
}

func (s *Service) assignOrderNumber(ctx context.Context, order *models.Order, now time.Time) error {
	for attempt := 0; attempt < 5; attempt++ {
		number := NewOrderNumber(now)
		ok, err := s.repo.ReserveOrderNumber(ctx, number, order.ID.String())
		if err != nil {
			return err
		}
		if ok {
			order.OrderNumber = number
			return nil
		}
		log.Printf("⚠️ Collision numéro de commande %s, regénération", number)
	}
	return fmt.Errorf("impossible de réserver un numéro de commande unique")
}

// Transition applique un changement de statut validé par la table des
// transitions. Annuler une commande remet le stock exactement une fois :
// annuler une commande déjà annulée est un no-op, jamais un double restock.
func (s *Service) Transition(ctx context.Context, orderID string, to models.OrderStatus, actor string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if to == models.OrderCancelled && order.Status == models.OrderCancelled {
		return order, nil
	}
	if !CanTransition(order.Status, to) {
		return nil, &InvalidTransitionError{From: order.Status, To: to}
	}

	from := order.Status
	now := s.now()
	switch to {
	case models.OrderProcessing:
		order.ProcessedAt = &now
	case models.OrderShipped:
		order.ShippedAt = &now
	case models.OrderDelivered:
		order.DeliveredAt = &now
	case models.OrderCancelled:
		order.CancelledAt = &now
	}
	order.Status = to

	// Écriture conditionnelle : si le statut a bougé entre la lecture et ici,
	// on perd la course et on rejoue la décision sur l'état frais.
	applied, err := s.repo.CompareAndSetStatus(ctx, order, from)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if to == models.OrderCancelled && current.Status == models.OrderCancelled {
			return current, nil
		}
		return nil, &InvalidTransitionError{From: current.Status, To: to}
	}

	// Le restock n'a lieu qu'après avoir gagné la transition : une seule
	// annulation peut passer ici, quel que soit le nombre d'appels concurrents.
	if to == models.OrderCancelled {
		for _, item := range order.Items {
			if err := s.ledger.Restore(ctx, item.ProductID.String(), item.Quantity, order.ID.String()); err != nil {
				log.Printf("❌ Échec remise en stock %s ×%d (commande %s annulée): %v",
					item.ProductID, item.Quantity, order.OrderNumber, err)
			}
		}
	}

	eventType := events.OrderStatusChanged
	if to == models.OrderCancelled {
		eventType = events.OrderCancelled
	}
	s.publish(ctx, events.Event{
		Type:        eventType,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      string(to),
		TotalCents:  order.TotalCents,
	})

	log.Printf("✅ Commande %s: statut → %s (par %s)", order.OrderNumber, to, actor)
	return order, nil
}

// Cancel est le raccourci client de Transition vers cancelled : le client ne
// peut annuler que sa propre commande, avant expédition.
func (s *Service) Cancel(ctx context.Context, orderID, customerID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrOrderNotFound
	}
	return s.Transition(ctx, orderID, models.OrderCancelled, "client "+customerID)
}

// RecordPaymentEvent enregistre un événement de la passerelle de paiement
// après validation : machine à états des tentatives, montant conforme au
// total, et ligne append-only. Un paiement confirmé fait automatiquement —
// et explicitement — passer la commande de pending à processing.
func (s *Service) RecordPaymentEvent(ctx context.Context, orderID string, status models.PaymentEventStatus,
	reference string, amountCents int64, transactionID string) (*models.Order, error) {

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.PaymentState
	if from == "" {
		from = models.PaymentEventPending
	}

	if !canPaymentTransition(from, status) {
		return nil, &InvalidPaymentTransitionError{From: from, To: status}
	}
	if status == models.PaymentEventCompleted && amountCents != order.TotalCents {
		return nil, &PaymentMismatchError{
			OrderNumber:   order.OrderNumber,
			ExpectedCents: order.TotalCents,
			ReceivedCents: amountCents,
		}
	}

	// Avance conditionnelle de la machine de paiement : sur deux livraisons
	// concurrentes du même webhook, une seule gagne, l'autre est rejetée
	// comme doublon.
	applied, err := s.repo.CompareAndSetPaymentState(ctx, orderID, from, status)
	if err != nil {
		return nil, err
	}
	if !applied {
		refreshed, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		current := refreshed.PaymentState
		if current == "" {
			current = models.PaymentEventPending
		}
		return nil, &InvalidPaymentTransitionError{From: current, To: status}
	}

	now := s.now()
	payment := &models.Payment{
		ID:            gocql.TimeUUID(),
		OrderID:       order.ID,
		Method:        order.PaymentMethod,
		Reference:     reference,
		TransactionID: transactionID,
		AmountCents:   amountCents,
		Status:        status,
		CreatedAt:     now,
	}
	if err := s.repo.AppendPayment(ctx, payment); err != nil {
		return nil, err
	}

	switch status {
	case models.PaymentEventCompleted:
		order.PaymentStatus = models.PaymentPaid
		order.PaidAt = &now
		// paiement confirmé ⇒ la préparation démarre
		if order.Status == models.OrderPending {
			order.Status = models.OrderProcessing
			order.ProcessedAt = &now
			won, err := s.repo.CompareAndSetStatus(ctx, order, models.OrderPending)
			if err != nil {
				return nil, err
			}
			if !won {
				// la commande a bougé entre-temps (annulation, préparation
				// déjà lancée) : on garde le paiement, pas le statut
				if err := s.repo.UpdatePaymentStatus(ctx, order); err != nil {
					return nil, err
				}
				if refreshed, err := s.repo.GetOrder(ctx, orderID); err == nil {
					order = refreshed
				}
			}
		} else {
			if err := s.repo.UpdatePaymentStatus(ctx, order); err != nil {
				return nil, err
			}
		}
	case models.PaymentEventFailed:
		order.PaymentStatus = models.PaymentFailed
		if err := s.repo.UpdatePaymentStatus(ctx, order); err != nil {
			return nil, err
		}
	case models.PaymentEventRefunded:
		order.PaymentStatus = models.PaymentRefunded
		if err := s.repo.UpdatePaymentStatus(ctx, order); err != nil {
			return nil, err
		}
	}

	switch status {
	case models.PaymentEventCompleted:
		s.publish(ctx, events.Event{
			Type:        events.PaymentCompleted,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			Status:      string(order.Status),
			TotalCents:  order.TotalCents,
		})
		log.Printf("💳 Paiement confirmé pour %s (%.2f€)", order.OrderNumber, float64(amountCents)/100)
	case models.PaymentEventFailed:
		s.publish(ctx, events.Event{
			Type:        events.PaymentFailed,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			Status:      string(order.Status),
		})
	}

	return order, nil
}

// Preview calcule les totaux du panier au prix courant, sans rien réserver.
// C'est un aperçu : seuls les totaux du commit font foi.
func (s *Service) Preview(ctx context.Context, ownerKey string) (pricing.Totals, []models.CartItem, error) {
	cartItems, err := s.carts.List(ctx, ownerKey)
	if err != nil {
		return pricing.Totals{}, nil, err
	}
	if len(cartItems) == 0 {
		return pricing.Totals{}, nil, ErrEmptyCart
	}

	lines := make([]pricing.Line, 0, len(cartItems))
	for i, item := range cartItems {
		p, err := s.ledger.Product(ctx, item.ProductID)
		if err != nil {
			return pricing.Totals{}, nil, err
		}
		cartItems[i].UnitPriceCents = p.PriceCents
		lines = append(lines, pricing.Line{
			UnitPriceCents: p.PriceCents,
			Quantity:       item.Quantity,
			VendorID:       p.VendorID.String(),
		})
	}

	return pricing.ComputeTotals(lines, s.shippingRule, s.taxRateBps), cartItems, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.repo.GetOrderByNumber(ctx, number)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *Service) Payments(ctx context.Context, orderID string) ([]models.Payment, error) {
	return s.repo.ListPayments(ctx, orderID)
}

// Invoice compose le document de facturation d'une commande.
func (s *Service) Invoice(ctx context.Context, orderID string) (*Invoice, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ComposeInvoice(ctx, order, s.vendors)
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	ev.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("⚠️ Erreur publication événement %s pour %s: %v", ev.Type, ev.OrderNumber, err)
	}
}

func countVendors(items []models.OrderItem) int {
	vendors := map[gocql.UUID]struct{}{}
	for _, item := range items {
		vendors[item.VendorID] = struct{}{}
	}
	return len(vendors)
}
