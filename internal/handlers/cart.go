package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Elisee98/markethub-sub001/internal/cart"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
)

// ownerKey identifie le propriétaire du panier : client connecté via le JWT,
// sinon session invitée via le header X-Session-ID.
func ownerKey(c *gin.Context) (string, bool) {
	if userID := c.GetString("user_id"); userID != "" {
		return cart.UserKey(userID), true
	}
	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		return cart.GuestKey(sessionID), true
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification ou X-Session-ID requis"})
	return "", false
}

// cartError traduit les erreurs du service panier en réponses HTTP.
func cartError(c *gin.Context, err error) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Stock insuffisant",
			"product":   insufficient.ProductID,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.Is(err, inventory.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
	case errors.Is(err, cart.ErrProductInactive):
		c.JSON(http.StatusConflict, gin.H{"error": "Produit désactivé"})
	case errors.Is(err, cart.ErrItemNotInCart):
		c.JSON(http.StatusNotFound, gin.H{"error": "Article absent du panier"})
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur panier"})
	}
}

// 🟢 GET /api/cart
func GetCart(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	items, err := Carts.List(c.Request.Context(), key)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	items, err := Carts.AddItem(c.Request.Context(), key, input.ProductID, input.Quantity)
	if err != nil {
		cartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   items,
	})
}

// 🔁 PUT /api/cart/:productId
func UpdateCartItem(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	items, err := Carts.UpdateQty(c.Request.Context(), key, c.Param("productId"), input.Quantity)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ❌ DELETE /api/cart/:productId
func RemoveFromCart(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	items, err := Carts.RemoveItem(c.Request.Context(), key, c.Param("productId"))
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   items,
	})
}

// 🧹 DELETE /api/cart/clear
func ClearCart(c *gin.Context) {
	key, ok := ownerKey(c)
	if !ok {
		return
	}

	if err := Carts.Clear(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}

// 🔀 POST /api/cart/merge — fusionne le panier invité dans le panier du
// client fraîchement connecté. Auth obligatoire.
func MergeCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var input struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id requis"})
		return
	}

	items, err := Carts.Merge(c.Request.Context(), cart.GuestKey(input.SessionID), cart.UserKey(userID))
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Paniers fusionnés",
		"items":   items,
	})
}

// 🔁 POST /api/cart/reorder/:id — remet une ancienne commande au panier, au
// prix courant. Les articles indisponibles sont signalés dans skipped.
func Reorder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, err := Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil || order.CustomerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	items, skipped, err := Carts.Reorder(c.Request.Context(), cart.UserKey(userID), order)
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"skipped": skipped,
	})
}
