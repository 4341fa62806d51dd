package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/models"
	"github.com/Elisee98/markethub-sub001/internal/orders"
	"github.com/Elisee98/markethub-sub001/internal/search"
)

// ⚙️ PUT /api/admin/orders/:id/status — transition de statut validée par la
// table : pas de saut d'étape, pas de retour en arrière.
func AdminUpdateOrderStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status requis"})
		return
	}

	to := models.OrderStatus(input.Status)
	switch to {
	case models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + input.Status})
		return
	}

	actor := "admin " + c.GetString("user_id")
	order, err := Orders.Transition(c.Request.Context(), c.Param("id"), to, actor)
	if err != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Transition interdite",
				"from":  invalid.From,
				"to":    invalid.To,
			})
		default:
			log.Println("❌ Erreur transition statut:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour statut"})
		}
		return
	}

	go search.IndexOrder(order)

	c.JSON(http.StatusOK, gin.H{
		"message": "Statut mis à jour",
		"order":   order,
	})
}

// ⚙️ GET /api/admin/orders/:id — une commande, sans filtre de propriétaire
func AdminGetOrder(c *gin.Context) {
	order, err := Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// 🔍 GET /api/admin/orders/search?q=...&status=... — recherche Elasticsearch
func AdminSearchOrders(c *gin.Context) {
	query := c.Query("q")
	status := c.Query("status")
	if query == "" && status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q ou status requis"})
		return
	}

	results, err := search.SearchOrders(query, status)
	if err != nil {
		log.Println("❌ Erreur recherche commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}

// 💰 POST /api/admin/orders/:id/refund — enregistre un remboursement déjà
// effectué côté passerelle
func AdminRefundOrder(c *gin.Context) {
	var input struct {
		Reference     string `json:"reference"`
		AmountCents   int64  `json:"amount_cents" binding:"required"`
		TransactionID string `json:"transaction_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents requis"})
		return
	}

	order, err := Orders.RecordPaymentEvent(c.Request.Context(), c.Param("id"),
		models.PaymentEventRefunded, input.Reference, input.AmountCents, input.TransactionID)
	if err != nil {
		var invalid *orders.InvalidPaymentTransitionError
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusConflict, gin.H{"error": "Remboursement impossible: paiement jamais confirmé"})
		default:
			log.Println("❌ Erreur remboursement:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur remboursement"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Remboursement enregistré",
		"order":   order,
	})
}

// 📦 POST /api/admin/inventory/:productId/adjust — restock (delta) ou
// inventaire (absolute), tracé dans le journal des mouvements
func AdminAdjustStock(c *gin.Context) {
	var input struct {
		Delta    int    `json:"delta"`
		Absolute bool   `json:"absolute"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Reason == "" {
		input.Reason = "ajustement manuel"
	}

	actorID := c.GetString("user_id")
	newStock, err := Stock.Adjust(c.Request.Context(), c.Param("productId"),
		input.Delta, input.Absolute, input.Reason, actorID)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Stock ajusté",
		"new_stock": newStock,
	})
}

// 📜 GET /api/admin/inventory/:productId/movements — journal des mouvements
func AdminStockMovements(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	movements, err := Stock.Movements(c.Request.Context(), c.Param("productId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération mouvements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

// 🚨 GET /api/admin/inventory/alerts — alertes de stock non résolues
func AdminStockAlerts(c *gin.Context) {
	alerts, err := Stock.OpenAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération alertes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
