package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/orders"
	"github.com/Elisee98/markethub-sub001/internal/search"
)

// 🔎 GET /api/checkout/preview — totaux du panier au prix courant, sans
// réservation. L'UI affiche, le commit décide.
func PreviewCheckout(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	totals, items, err := Orders.Preview(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, orders.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
			return
		}
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"totals": totals,
	})
}

// 💳 POST /api/checkout — transforme le panier en commande puis crée le
// PaymentIntent Stripe. La commande naît pending/pending : c'est le webhook
// qui la fera avancer une fois le paiement confirmé.
func Checkout(c *gin.Context) {
	var req struct {
		ShippingAddressID   string `json:"shipping_address_id" binding:"required"`
		BillingAddressID    string `json:"billing_address_id"`
		PaymentMethod       string `json:"payment_method"`
		SpecialInstructions string `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	if req.BillingAddressID == "" {
		req.BillingAddressID = req.ShippingAddressID
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "card"
	}

	// L'adresse doit exister et appartenir au client
	if !addressBelongsToUser(c, req.ShippingAddressID, userID) {
		return
	}
	if req.BillingAddressID != req.ShippingAddressID && !addressBelongsToUser(c, req.BillingAddressID, userID) {
		return
	}

	key, ok := ownerKey(c)
	if !ok {
		return
	}

	order, err := Orders.Commit(c.Request.Context(), orders.CommitRequest{
		OwnerKey:            key,
		CustomerID:          userID,
		ShippingAddressID:   req.ShippingAddressID,
		BillingAddressID:    req.BillingAddressID,
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		commitError(c, err)
		return
	}

	go search.IndexOrder(order)

	response := gin.H{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"totals": gin.H{
			"subtotal_cents": order.SubtotalCents,
			"shipping_cents": order.ShippingCents,
			"tax_cents":      order.TaxCents,
			"total_cents":    order.TotalCents,
		},
		"status": order.Status,
	}

	// Paiement par carte : PaymentIntent Stripe au montant exact de la commande
	if req.PaymentMethod == "card" {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(order.TotalCents),
			Currency: stripe.String("eur"),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
			Metadata: map[string]string{
				"order_id":     order.ID.String(),
				"order_number": order.OrderNumber,
				"user_id":      userID,
				"email":        email,
			},
		}

		intent, err := paymentintent.New(params)
		if err != nil {
			log.Printf("❌ Erreur Stripe pour %s: %v", order.OrderNumber, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement", "order_number": order.OrderNumber})
			return
		}

		log.Printf("💳 PaymentIntent créé : %s pour %s", intent.ID, order.OrderNumber)
		response["client_secret"] = intent.ClientSecret
		response["payment_id"] = intent.ID
	}

	c.JSON(http.StatusCreated, response)
}

// commitError traduit les échecs du commit en réponses HTTP précises : le
// client doit savoir quel article a coulé son checkout.
func commitError(c *gin.Context, err error) {
	var insufficient *inventory.InsufficientStockError
	var inactive *orders.InactiveProductError
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Stock insuffisant",
			"product":   insufficient.ProductID,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.As(err, &inactive):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Produit plus disponible",
			"product": inactive.ProductID,
		})
	case errors.Is(err, inventory.ErrStockConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Forte affluence sur un article, réessayez"})
	case errors.Is(err, inventory.ErrProductNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "Un article du panier n'existe plus"})
	default:
		log.Printf("❌ Erreur commit commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
	}
}

func addressBelongsToUser(c *gin.Context, addressID, userID string) bool {
	addressUUID, err := uuid.Parse(addressID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return false
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return false
	}

	var addressUserID string
	err = usersSession.Query("SELECT user_id FROM addresses WHERE address_id = ?", gocql.UUID(addressUUID)).
		WithContext(c.Request.Context()).Scan(&addressUserID)
	if err != nil || addressUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Adresse introuvable ou non autorisée"})
		return false
	}
	return true
}
