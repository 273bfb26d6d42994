package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration (optional, used for the per-order lock)
	RedisURL string

	// Merchant cabinet configuration
	MerchantID      string
	MerchantLogin   string
	MerchantKeyFile string

	// Whether a completed (paid) order may still be cancelled
	AllowCancelCompleted bool

	// Merchant backend webhook configuration
	WebhookURL    string
	WebhookSecret string

	// Brevo email configuration (ops notifications)
	BrevoAPIKey    string
	BrevoFromEmail string
	OpsEmail       string

	ServiceName string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                 getEnv("PORT", "8080"),
		Mode:                 getEnv("GIN_MODE", "debug"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		MerchantID:           getEnv("MERCHANT_ID", ""),
		MerchantLogin:        getEnv("MERCHANT_LOGIN", "Paycom"),
		MerchantKeyFile:      getEnv("MERCHANT_KEY_FILE", "password.paycom"),
		AllowCancelCompleted: getEnvBool("ALLOW_CANCEL_COMPLETED", false),
		WebhookURL:           getEnv("WEBHOOK_URL", ""),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		BrevoAPIKey:          getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:       getEnv("BREVO_FROM_EMAIL", ""),
		OpsEmail:             getEnv("OPS_EMAIL", ""),
		ServiceName:          getEnv("SERVICE_NAME", "Payme Merchant Service"),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
