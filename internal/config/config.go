package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	APIUrl      string
	FrontendURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT (admin settings API)
	JWTSecret              string
	JWTAccessTokenDuration time.Duration

	// PagSeguro
	PagSeguroCheckoutURL string
	PagSeguroPaymentURL  string
	PagSeguroNotifyURL   string
	PagSeguroEmail       string
	PagSeguroToken       string
	PagSeguroTimeout     time.Duration

	// Platform
	Currency  string
	EventName string

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		APIUrl:      getEnv("API_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ingresso"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "ingresso_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "America/Sao_Paulo"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:              getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration: getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),

		// PagSeguro
		PagSeguroCheckoutURL: getEnv("PAGSEGURO_CHECKOUT_URL", "https://ws.pagseguro.uol.com.br/v2/checkout/"),
		PagSeguroPaymentURL:  getEnv("PAGSEGURO_PAYMENT_URL", "https://pagseguro.uol.com.br/v2/checkout/payment.html?code="),
		PagSeguroNotifyURL:   getEnv("PAGSEGURO_NOTIFY_URL", "https://ws.pagseguro.uol.com.br/v2/transactions/notifications/"),
		PagSeguroEmail:       getEnv("PAGSEGURO_EMAIL", ""),
		PagSeguroToken:       getEnv("PAGSEGURO_TOKEN", ""),
		PagSeguroTimeout:     getEnvAsDuration("PAGSEGURO_TIMEOUT", "30s"),

		// Platform
		Currency:  getEnv("PLATFORM_CURRENCY", "BRL"),
		EventName: getEnv("PLATFORM_EVENT_NAME", ""),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

// TicketsURL is the public page buyers land on for payment returns and
// ticket access. PagSeguro calls back to this URL as well.
func (c *Config) TicketsURL() string {
	return c.APIUrl + "/api/v1/tickets"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
