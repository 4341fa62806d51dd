package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/orders"
	"github.com/Elisee98/markethub-sub001/internal/services"
	"github.com/Elisee98/markethub-sub001/internal/utils"
)

// ✅ GET /api/orders — les commandes du client connecté, plus récentes d'abord
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	list, err := Orders.ListByCustomer(c.Request.Context(), userID)
	if err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// ownOrder charge une commande et vérifie qu'elle appartient au client.
// Une commande d'autrui est introuvable, jamais interdite : on ne confirme
// pas l'existence d'une commande à qui ne la possède pas.
func ownOrder(c *gin.Context, orderID string) (*models.Order, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return nil, false
	}

	order, err := Orders.Get(c.Request.Context(), orderID)
	if err != nil || order.CustomerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	return order, true
}

// ✅ GET /api/orders/:id
func GetOrderByID(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// 📍 GET /api/orders/:id/tracking — la frise de suivi dérivée du statut
func GetOrderTracking(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"timeline":     orders.DeriveTimeline(order),
	})
}

// 📍 GET /api/track/:number — suivi par numéro de commande
func TrackByNumber(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, err := Orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil || order.CustomerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"timeline":     orders.DeriveTimeline(order),
	})
}

// ❌ POST /api/orders/:id/cancel — annulation client, avant expédition
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, err := Orders.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà expédiée, annulation impossible"})
		default:
			log.Println("❌ Erreur annulation commande:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur annulation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Commande annulée",
		"order":   order,
	})
}

// 💳 GET /api/orders/:id/payments — l'historique des tentatives de paiement
func GetOrderPayments(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}

	payments, err := Orders.Payments(c.Request.Context(), order.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération paiements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// 🧾 GET /api/orders/:id/invoice — la facture en JSON, découpée par vendeur
func GetOrderInvoice(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}

	invoice, err := Orders.Invoice(c.Request.Context(), order.ID.String())
	if err != nil {
		log.Println("❌ Erreur composition facture:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur composition facture"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// 🧾 GET /api/orders/:id/invoice/pdf — rend le PDF, l'archive dans MinIO et
// le renvoie directement
func DownloadInvoicePDF(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}

	pdf, err := utils.GenerateInvoicePDF(order)
	if err != nil {
		log.Println("❌ Erreur génération PDF:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération PDF"})
		return
	}

	go func(number string, data []byte) {
		if _, err := services.ArchiveInvoicePDF(context.Background(), number, data); err != nil {
			log.Printf("⚠️ Archivage facture %s échoué: %v", number, err)
		}
	}(order.OrderNumber, pdf)

	c.Header("Content-Disposition", "attachment; filename=facture_"+order.OrderNumber+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// 📧 POST /api/orders/:id/invoice/send — envoie la facture par email
func EmailInvoice(c *gin.Context) {
	order, ok := ownOrder(c, c.Param("id"))
	if !ok {
		return
	}

	email := c.GetString("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email absent du token"})
		return
	}

	pdf, err := utils.GenerateInvoicePDF(order)
	if err != nil {
		log.Println("❌ Erreur génération PDF:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération PDF"})
		return
	}

	html := utils.GenerateOrderConfirmationHTML(order)
	go func(to, subject string) {
		if err := utils.SendConfirmationEmail(to, subject, html, pdf); err != nil {
			log.Println("❌ Erreur envoi facture:", err)
		}
	}(email, "Votre facture MarketHub "+order.OrderNumber)

	c.JSON(http.StatusAccepted, gin.H{"message": "Facture en cours d'envoi"})
}
