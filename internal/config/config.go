package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the server needs from the environment. Values
// are read once at startup, the rest of the code never touches os.Getenv.
type Config struct {
	Port        string
	AppURL      string
	Environment string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	ShopifyAPIKey    string
	ShopifyAPISecret string
	Scopes           []string

	EncryptionKey string

	StateTTL       time.Duration
	ValidateTokens bool

	RateLimitRPS   float64
	RateLimitBurst int
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything optional. Unparseable numeric values fall back to their default.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppURL:      strings.TrimSuffix(getEnv("APP_URL", "http://localhost:8080"), "/"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "voxcart_auth"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		ShopifyAPIKey:    os.Getenv("SHOPIFY_API_KEY"),
		ShopifyAPISecret: os.Getenv("SHOPIFY_API_SECRET"),
		Scopes:           splitScopes(getEnv("SHOPIFY_SCOPES", "read_products")),

		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		StateTTL:       time.Duration(getEnvInt("STATE_TTL_SECONDS", 600)) * time.Second,
		ValidateTokens: getEnv("SHOPIFY_VALIDATE_TOKENS", "true") == "true",

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

// Validate reports the first missing variable the server cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.ShopifyAPIKey == "":
		return fmt.Errorf("SHOPIFY_API_KEY environment variable is required")
	case c.ShopifyAPISecret == "":
		return fmt.Errorf("SHOPIFY_API_SECRET environment variable is required")
	case c.EncryptionKey == "":
		return fmt.Errorf("ENCRYPTION_KEY environment variable is required")
	}
	return nil
}

// SecureCookies reports whether cookies should carry the Secure attribute.
// Local development runs over plain HTTP, everything else is TLS.
func (c *Config) SecureCookies() bool {
	return c.Environment != "development"
}

func splitScopes(raw string) []string {
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		if scope := strings.TrimSpace(part); scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
