package api

import (
	"payme-merchant/internal/auth"
	"payme-merchant/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler, verifier *auth.Verifier) {
	// API route group
	api := r.Group("/api")
	{
		// Single merchant endpoint, the processor POSTs every method here
		payme := api.Group("/payme")
		payme.Use(middleware.ParseEnvelope(), middleware.MerchantAuth(verifier))
		{
			payme.POST("", h.HandleRPC)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "payme-merchant",
		})
	})
}
