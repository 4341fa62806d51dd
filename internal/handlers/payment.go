package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/orders"
	"github.com/Elisee98/markethub-sub001/internal/search"
	"github.com/Elisee98/markethub-sub001/internal/utils"
)

// ✅ Webhook Stripe
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	c.Status(http.StatusOK)
}

// handleStripeEvent transcrit l'événement de la passerelle en événement de
// paiement du moteur. Le montant Stripe est déjà en centimes : il est comparé
// tel quel au total de la commande.
func handleStripeEvent(event stripe.Event) {
	var status models.PaymentEventStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentEventCompleted
	case "payment_intent.payment_failed":
		status = models.PaymentEventFailed
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	orderID := pi.Metadata["order_id"]
	userEmail := pi.Metadata["email"]
	if orderID == "" {
		log.Println("⚠️ PaymentIntent sans order_id, ignoré:", pi.ID)
		return
	}

	transactionID := ""
	if pi.LatestCharge != nil {
		transactionID = pi.LatestCharge.ID
	}

	ctx := context.Background()
	order, err := Orders.RecordPaymentEvent(ctx, orderID, status, pi.ID, pi.Amount, transactionID)
	if err != nil {
		var mismatch *orders.PaymentMismatchError
		var invalid *orders.InvalidPaymentTransitionError
		switch {
		case errors.As(err, &mismatch):
			log.Printf("🚨 Montant Stripe inattendu pour %s: reçu %d, attendu %d",
				mismatch.OrderNumber, mismatch.ReceivedCents, mismatch.ExpectedCents)
		case errors.As(err, &invalid):
			// Stripe renvoie les webhooks : un doublon est un non-événement
			log.Printf("🔁 Événement de paiement déjà traité pour %s (%s)", orderID, status)
		default:
			log.Printf("❌ Erreur enregistrement paiement %s: %v", orderID, err)
		}
		return
	}

	go search.IndexOrder(order)

	if status == models.PaymentEventCompleted && userEmail != "" {
		html := utils.GenerateOrderConfirmationHTML(order)
		pdf, err := utils.GenerateInvoicePDF(order)
		if err != nil {
			log.Println("❌ Erreur génération PDF :", err)
			pdf = nil
		}

		go func() {
			if err := utils.SendConfirmationEmail(userEmail, "Confirmation de votre commande MarketHub", html, pdf); err != nil {
				log.Println("❌ Erreur envoi e-mail confirmation :", err)
			} else {
				log.Println("📧 E-mail de confirmation envoyé à", userEmail)
			}
		}()
	}
}
