package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Elisee98/markethub-sub001/internal/handlers"
	"github.com/Elisee98/markethub-sub001/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Webhook Stripe : signé par Stripe, jamais par un JWT
	api.POST("/webhooks/stripe", handlers.StripeWebhook)

	// Panier : accessible aux invités (X-Session-ID) comme aux connectés
	cart := api.Group("/cart")
	{
		cart.GET("", handlers.GetCart)
		cart.POST("/add", middleware.CartRateLimit(), handlers.AddToCart)
		cart.PUT("/:productId", handlers.UpdateCartItem)
		cart.DELETE("/clear", handlers.ClearCart)
		cart.DELETE("/:productId", handlers.RemoveFromCart)
	}

	// Tout le reste exige un client authentifié
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		auth.POST("/cart/merge", handlers.MergeCart)
		auth.POST("/cart/reorder/:id", handlers.Reorder)

		auth.GET("/checkout/preview", handlers.PreviewCheckout)
		auth.POST("/checkout", middleware.CheckoutRateLimit(), handlers.Checkout)

		auth.GET("/orders", handlers.GetMyOrders)
		auth.GET("/orders/:id", handlers.GetOrderByID)
		auth.POST("/orders/:id/cancel", handlers.CancelOrder)
		auth.GET("/orders/:id/tracking", handlers.GetOrderTracking)
		auth.GET("/orders/:id/payments", handlers.GetOrderPayments)
		auth.GET("/orders/:id/invoice", handlers.GetOrderInvoice)
		auth.GET("/orders/:id/invoice/pdf", handlers.DownloadInvoicePDF)
		auth.POST("/orders/:id/invoice/send", handlers.EmailInvoice)
		auth.GET("/track/:number", handlers.TrackByNumber)

		auth.GET("/ws/orders", handlers.OrderEventsWebSocket)
	}

	// Back-office : rôle admin obligatoire
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/orders/search", middleware.SearchRateLimit(), handlers.AdminSearchOrders)
		admin.GET("/orders/:id", handlers.AdminGetOrder)
		admin.PUT("/orders/:id/status", handlers.AdminUpdateOrderStatus)
		admin.POST("/orders/:id/refund", handlers.AdminRefundOrder)

		admin.POST("/inventory/:productId/adjust", handlers.AdminAdjustStock)
		admin.GET("/inventory/:productId/movements", handlers.AdminStockMovements)
		admin.GET("/inventory/alerts", handlers.AdminStockAlerts)
	}
}
