package handlers

import (
	"context"
	"log"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/events"
	"github.com/Elisee98/markethub-sub001/internal/search"
	"github.com/Elisee98/markethub-sub001/internal/utils"
)

// StartEventConsumer écoute le canal pub/sub et fait réagir les
// collaborateurs : email de statut au client, push WebSocket. À lancer dans
// une goroutine au démarrage.
func StartEventConsumer(ctx context.Context) {
	events.Subscribe(ctx, database.Redis, func(ev events.Event) {
		BroadcastOrderEvent(ev)

		switch ev.Type {
		case events.OrderStatusChanged, events.OrderCancelled:
			notifyCustomer(ev, ev.Status)
			reindexOrder(ev.OrderID)
		case events.PaymentFailed:
			notifyCustomer(ev, "payment_failed")
		}
		// order_placed et payment_completed : l'email part du webhook, avec
		// la facture en pièce jointe
	})
}

// reindexOrder garde l'index de recherche aligné sur le statut courant.
func reindexOrder(orderID string) {
	order, err := Orders.Get(context.Background(), orderID)
	if err != nil {
		return
	}
	go search.IndexOrder(order)
}

func notifyCustomer(ev events.Event, status string) {
	email := lookupCustomerEmail(ev.CustomerID)
	if email == "" {
		log.Printf("⚠️ Email introuvable pour le client %s, notification %s ignorée", ev.CustomerID, ev.Type)
		return
	}

	order, err := Orders.Get(context.Background(), ev.OrderID)
	if err != nil {
		log.Printf("⚠️ Commande %s introuvable pour notification: %v", ev.OrderID, err)
		return
	}

	go func() {
		if err := utils.SendOrderStatusEmail(order, email, status); err != nil {
			log.Printf("❌ Erreur email statut %s pour %s: %v", status, order.OrderNumber, err)
		}
	}()
}

func lookupCustomerEmail(customerID string) string {
	parsed, err := uuid.Parse(customerID)
	if err != nil {
		return ""
	}

	session, err := database.GetUsersSession()
	if err != nil {
		return ""
	}

	var email string
	if err := session.Query("SELECT email FROM users WHERE user_id = ?", gocql.UUID(parsed)).Scan(&email); err != nil {
		return ""
	}
	return email
}
