package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	ordersapp "github.com/Apurer/storefront-client/internal/domains/orders/application"
)

// Credential backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config carries environment-driven settings for the CLI process.
type Config struct {
	APIURL            string
	HTTPTimeout       time.Duration
	RateLimitRPS      float64
	CredentialBackend string
	CredentialFile    string
	PostgresDSN       string
	RedisAddr         string
	TokenTTL          time.Duration
	OrderSource       ordersapp.Source
	VerifySecret      string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		APIURL:            envDefault("STOREFRONT_API_URL", storefront.DefaultBaseURL),
		HTTPTimeout:       10 * time.Second,
		CredentialBackend: strings.ToLower(envDefault("STOREFRONT_CREDENTIAL_BACKEND", BackendFile)),
		CredentialFile:    strings.TrimSpace(os.Getenv("STOREFRONT_CREDENTIAL_FILE")),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         envDefault("REDIS_ADDR", "localhost:6379"),
		VerifySecret:      strings.TrimSpace(os.Getenv("STOREFRONT_VERIFY_SECRET")),
	}
	if raw := strings.TrimSpace(os.Getenv("STOREFRONT_HTTP_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("STOREFRONT_HTTP_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.HTTPTimeout = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("STOREFRONT_RATE_LIMIT_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("STOREFRONT_RATE_LIMIT_RPS must be a non-negative number")
		}
		cfg.RateLimitRPS = rps
	}
	if raw := strings.TrimSpace(os.Getenv("STOREFRONT_TOKEN_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			return Config{}, fmt.Errorf("STOREFRONT_TOKEN_TTL_HOURS must be a non-negative integer")
		}
		cfg.TokenTTL = time.Duration(hours) * time.Hour
	}
	source, err := ordersapp.ParseSource(os.Getenv("STOREFRONT_ORDER_SOURCE"))
	if err != nil {
		return Config{}, fmt.Errorf("STOREFRONT_ORDER_SOURCE: %w", err)
	}
	cfg.OrderSource = source

	switch cfg.CredentialBackend {
	case BackendMemory, BackendFile, BackendRedis:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required for the postgres credential backend")
		}
	default:
		return Config{}, fmt.Errorf("STOREFRONT_CREDENTIAL_BACKEND must be one of memory, file, postgres, redis")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
