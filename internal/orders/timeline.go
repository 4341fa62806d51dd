package orders

import (
	"time"

	"github.com/Elisee98/markethub-sub001/internal/models"
)

// Milestone est une étape visible par le client sur la page de suivi.
type Milestone struct {
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Completed   bool       `json:"completed"`
}

// DeriveTimeline dérive la frise de suivi uniquement depuis l'état persisté
// de la commande : fonction pure, rejouable à volonté, partagée par la page
// de suivi et la page de confirmation.
func DeriveTimeline(order *models.Order) []Milestone {
	// une commande annulée court-circuite le chemin normal : on n'affiche
	// jamais une progression partielle à côté d'une annulation
	if order.Status == models.OrderCancelled {
		return []Milestone{{
			Status:      "cancelled",
			Title:       "Commande annulée",
			Description: "Cette commande a été annulée et les articles remis en stock.",
			Timestamp:   order.CancelledAt,
			Completed:   true,
		}}
	}

	rank := statusRank(order.Status)
	created := order.CreatedAt

	timeline := []Milestone{{
		Status:      "placed",
		Title:       "Commande enregistrée",
		Description: "Votre commande a bien été enregistrée.",
		Timestamp:   &created,
		Completed:   true,
	}}

	// jalon paiement : présent seulement si le paiement a été confirmé un jour
	if order.PaidAt != nil {
		timeline = append(timeline, Milestone{
			Status:      "payment_confirmed",
			Title:       "Paiement confirmé",
			Description: "Votre paiement a été validé.",
			Timestamp:   order.PaidAt,
			Completed:   true,
		})
	}

	timeline = append(timeline,
		Milestone{
			Status:      "processing",
			Title:       "En préparation",
			Description: "Les vendeurs préparent vos articles.",
			Timestamp:   order.ProcessedAt,
			Completed:   rank >= 1,
		},
		Milestone{
			Status:      "shipped",
			Title:       "Expédiée",
			Description: "Votre commande a été remise au transporteur.",
			Timestamp:   order.ShippedAt,
			Completed:   rank >= 2,
		},
		Milestone{
			Status:      "out_for_delivery",
			Title:       "En cours de livraison",
			Description: "Le transporteur achemine votre colis.",
			Completed:   rank >= 3,
		},
		Milestone{
			Status:      "delivered",
			Title:       "Livrée",
			Description: "Votre commande a été livrée.",
			Timestamp:   order.DeliveredAt,
			Completed:   rank >= 3,
		},
	)

	return timeline
}
