package orders

import "github.com/Elisee98/markethub-sub001/internal/models"

// Cycle de vie d'une commande : pending → processing → shipped → delivered,
// strictement vers l'avant. Seule marche arrière tolérée : cancelled, et
// uniquement avant expédition.
var legalTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// CanTransition indique si from → to figure dans la table des transitions.
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// statusRank ordonne les états d'avancement, pour dériver la timeline.
// cancelled n'a pas de rang : il court-circuite le chemin normal.
func statusRank(s models.OrderStatus) int {
	switch s {
	case models.OrderPending:
		return 0
	case models.OrderProcessing:
		return 1
	case models.OrderShipped:
		return 2
	case models.OrderDelivered:
		return 3
	default:
		return -1
	}
}

// Machine des tentatives de paiement : pending → processing → completed|failed,
// puis completed → refunded. Une tentative échouée ne bloque pas : le retry
// suivant repart de zéro (nouvelle ligne).
var legalPaymentTransitions = map[models.PaymentEventStatus][]models.PaymentEventStatus{
	models.PaymentEventPending:    {models.PaymentEventProcessing, models.PaymentEventCompleted, models.PaymentEventFailed},
	models.PaymentEventProcessing: {models.PaymentEventCompleted, models.PaymentEventFailed},
	models.PaymentEventCompleted:  {models.PaymentEventRefunded},
	models.PaymentEventFailed:     {},
	models.PaymentEventRefunded:   {},
}

func canPaymentTransition(from, to models.PaymentEventStatus) bool {
	// après un échec, un nouvel essai repart comme une tentative neuve
	if from == models.PaymentEventFailed && to != models.PaymentEventRefunded {
		return canPaymentTransition(models.PaymentEventPending, to)
	}
	for _, allowed := range legalPaymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
