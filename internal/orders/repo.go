package orders

import (
	"context"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// Repository persiste commandes et lignes de paiement. Les commandes ne sont
// jamais supprimées : une annulation est un changement de statut.
type Repository interface {
	// ReserveOrderNumber réserve un numéro de commande de façon atomique.
	// Retourne false (sans erreur) si le numéro est déjà pris.
	ReserveOrderNumber(ctx context.Context, number string, orderID string) (bool, error)

	// ReleaseOrderNumber rend un numéro réservé quand le commit échoue après
	// la réservation. Ne touche pas une réservation d'une autre commande.
	ReleaseOrderNumber(ctx context.Context, number string, orderID string) error

	// CreateOrder insère la commande et ses lignes figées.
	CreateOrder(ctx context.Context, order *models.Order) error

	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)

	// CompareAndSetStatus persiste statut, statut de paiement et horodatages
	// seulement si le statut stocké vaut encore from. Retourne false (sans
	// erreur) quand un écrivain concurrent a gagné.
	CompareAndSetStatus(ctx context.Context, order *models.Order, from models.OrderStatus) (bool, error)

	// CompareAndSetPaymentState avance la machine de paiement de from vers to,
	// atomiquement. Retourne false si l'état stocké a déjà bougé.
	CompareAndSetPaymentState(ctx context.Context, orderID string, from, to models.PaymentEventStatus) (bool, error)

	// UpdatePaymentStatus persiste le statut de paiement et son horodatage,
	// sans toucher au statut de la commande.
	UpdatePaymentStatus(ctx context.Context, order *models.Order) error

	// AppendPayment ajoute une ligne de paiement (append-only).
	AppendPayment(ctx context.Context, payment *models.Payment) error

	// ListPayments retourne l'historique, plus récent d'abord.
	ListPayments(ctx context.Context, orderID string) ([]models.Payment, error)
}
