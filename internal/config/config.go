package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Refund   RefundConfig
	Gateway  GatewayConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Driver     string // "postgres", "bolt" or "memory"
	Connection string
	BoltPath   string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	JWTSecret string
}

// RefundConfig holds the tunable refund policy.
type RefundConfig struct {
	AutoThreshold     int
	AnnotateThreshold int
	MaxRetries        int
	RetryBackoff      time.Duration
	RetryBackoffMax   time.Duration
	SweepInterval     time.Duration
	SmallAmountLimit  int64
	AbuseLimit        int
}

type GatewayConfig struct {
	Provider          string // "sandbox", "midtrans" or "stripe"
	Timeout           time.Duration
	MidtransServerKey string
	MidtransEnv       string
	StripeSecretKey   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			BoltPath:   getEnv("BOLT_PATH", "refunds.db"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Storefront Support"),
		},
		Keys: APIKeys{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Refund: RefundConfig{
			AutoThreshold:     getEnvAsInt("REFUND_AUTO_THRESHOLD", 90),
			AnnotateThreshold: getEnvAsInt("REFUND_ANNOTATE_THRESHOLD", 50),
			MaxRetries:        getEnvAsInt("REFUND_MAX_RETRIES", 3),
			RetryBackoff:      getEnvAsDuration("REFUND_RETRY_BACKOFF", time.Minute),
			RetryBackoffMax:   getEnvAsDuration("REFUND_RETRY_BACKOFF_MAX", time.Hour),
			SweepInterval:     getEnvAsDuration("REFUND_RETRY_SWEEP_INTERVAL", 30*time.Second),
			SmallAmountLimit:  int64(getEnvAsInt("REFUND_SMALL_AMOUNT_LIMIT", 5000)),
			AbuseLimit:        getEnvAsInt("REFUND_ABUSE_LIMIT", 5),
		},
		Gateway: GatewayConfig{
			Provider:          getEnv("GATEWAY_PROVIDER", "sandbox"),
			Timeout:           getEnvAsDuration("GATEWAY_TIMEOUT", 15*time.Second),
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransEnv:       getEnv("MIDTRANS_ENV", "sandbox"),
			StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
