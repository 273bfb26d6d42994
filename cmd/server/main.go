package main

import (
	"log"

	"payme-merchant/internal/api"
	"payme-merchant/internal/auth"
	"payme-merchant/internal/config"
	"payme-merchant/internal/database"
	"payme-merchant/internal/services"
	"payme-merchant/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	cfg := config.AppConfig

	// Merchant credentials, password re-read from the key file per request
	verifier := auth.NewVerifier(cfg.MerchantLogin, cfg.MerchantKeyFile)

	// Per-order lock: Redis when configured, in-process otherwise
	var locker services.OrderLocker = services.NewMemoryLocker()
	if database.GetRedis() != nil {
		locker = services.NewRedisLocker(database.GetRedis())
	}

	orders := services.NewOrderService(database.GetDB(), cfg.AllowCancelCompleted)
	transactions := services.NewTransactionService(database.GetDB())
	webhooks := services.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret)
	mail := services.NewMailNotifier(cfg.BrevoAPIKey, cfg.BrevoFromEmail, cfg.OpsEmail, cfg.ServiceName)

	handler := api.NewHandler(orders, transactions, locker, verifier, webhooks, mail)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, handler, verifier)

	// Start server
	port := cfg.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
