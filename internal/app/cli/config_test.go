package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersapp "github.com/Apurer/storefront-client/internal/domains/orders/application"
)

var configEnv = []string{
	"STOREFRONT_API_URL",
	"STOREFRONT_HTTP_TIMEOUT_SECONDS",
	"STOREFRONT_RATE_LIMIT_RPS",
	"STOREFRONT_CREDENTIAL_BACKEND",
	"STOREFRONT_CREDENTIAL_FILE",
	"POSTGRES_DSN",
	"REDIS_ADDR",
	"STOREFRONT_TOKEN_TTL_HOURS",
	"STOREFRONT_ORDER_SOURCE",
	"STOREFRONT_VERIFY_SECRET",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, BackendFile, cfg.CredentialBackend)
	assert.Equal(t, ordersapp.SourceSummary, cfg.OrderSource)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Zero(t, cfg.TokenTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("STOREFRONT_RATE_LIMIT_RPS", "2.5")
	t.Setenv("STOREFRONT_CREDENTIAL_BACKEND", "Redis")
	t.Setenv("STOREFRONT_TOKEN_TTL_HOURS", "12")
	t.Setenv("STOREFRONT_ORDER_SOURCE", "transactions")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, BackendRedis, cfg.CredentialBackend)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, ordersapp.SourceTransactions, cfg.OrderSource)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string][2]string{
		"timeout":        {"STOREFRONT_HTTP_TIMEOUT_SECONDS", "0"},
		"rate":           {"STOREFRONT_RATE_LIMIT_RPS", "-1"},
		"ttl":            {"STOREFRONT_TOKEN_TTL_HOURS", "soon"},
		"source":         {"STOREFRONT_ORDER_SOURCE", "history"},
		"backend":        {"STOREFRONT_CREDENTIAL_BACKEND", "etcd"},
		"postgres w/dsn": {"STOREFRONT_CREDENTIAL_BACKEND", "postgres"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestBuildCredentialStore_PostgresFailureReturnsError(t *testing.T) {
	cfg := Config{CredentialBackend: BackendPostgres, PostgresDSN: "   "}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, cleanup, err := buildCredentialStore(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Nil(t, cleanup)
}
