package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"github.com/Elisee98/markethub-sub001/internal/cart"
	"github.com/Elisee98/markethub-sub001/internal/config"
	"github.com/Elisee98/markethub-sub001/internal/database"
	"github.com/Elisee98/markethub-sub001/internal/events"
	"github.com/Elisee98/markethub-sub001/internal/handlers"
	"github.com/Elisee98/markethub-sub001/internal/inventory"
	"github.com/Elisee98/markethub-sub001/internal/orders"
	"github.com/Elisee98/markethub-sub001/internal/routes"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()
	defer database.CloseScylla()

	// Assemblage du moteur de commandes
	ledger := inventory.NewScyllaLedger()
	cartStore := cart.NewRedisStore(database.Redis)
	cartSvc := cart.NewService(cartStore, ledger)
	vendors := &orders.ScyllaVendorDirectory{}
	publisher := events.NewRedisPublisher(database.Redis)
	repo := orders.NewScyllaRepository()

	orderSvc := orders.NewService(repo, ledger, cartStore,
		vendors, publisher, config.ShippingRule(), config.TaxRateBps())

	handlers.Init(cartSvc, orderSvc, ledger)

	// Consommateur d'événements : emails de statut et push WebSocket
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handlers.StartEventConsumer(ctx)

	r := gin.Default()
	r.Use(cors.New(corsConfig()))
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur MarketHub lancé sur le port", port)
	r.Run(":" + port)
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Session-ID", "Stripe-Signature")
	return cfg
}
