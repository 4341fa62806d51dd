package orders

import (
	"errors"
	"fmt"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

var (
	ErrEmptyCart     = errors.New("panier vide")
	ErrOrderNotFound = errors.New("commande introuvable")
)

// InvalidTransitionError : transition refusée par la machine à états, l'état
// de la commande n'est pas modifié.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition de statut illégale: %s → %s", e.From, e.To)
}

// InvalidPaymentTransitionError : événement de paiement incohérent avec
// l'historique des tentatives.
type InvalidPaymentTransitionError struct {
	From models.PaymentEventStatus
	To   models.PaymentEventStatus
}

func (e *InvalidPaymentTransitionError) Error() string {
	return fmt.Sprintf("transition de paiement illégale: %s → %s", e.From, e.To)
}

// PaymentMismatchError : le montant annoncé par la passerelle ne correspond
// pas au total de la commande. L'événement est rejeté, rien n'est enregistré.
type PaymentMismatchError struct {
	OrderNumber   string
	ExpectedCents int64
	ReceivedCents int64
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("montant de paiement incohérent pour %s: attendu %d, reçu %d",
		e.OrderNumber, e.ExpectedCents, e.ReceivedCents)
}

// InactiveProductError : un article du panier référence un produit désactivé,
// le commit entier est abandonné.
type InactiveProductError struct {
	ProductID string
	Name      string
}

func (e *InactiveProductError) Error() string {
	return fmt.Sprintf("produit désactivé: %s (%s)", e.Name, e.ProductID)
}
