package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	sessionpostgres "github.com/Apurer/storefront-client/internal/domains/session/adapters/postgres"
	"github.com/Apurer/storefront-client/internal/platform/migrations"
	platformpostgres "github.com/Apurer/storefront-client/internal/platform/postgres"
)

// credential-purger deletes stored bearer tokens older than the configured TTL
// from the postgres credential backend. Run it from cron alongside shared hosts.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, cleanup := platformpostgres.ConnectWithCleanup(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge credentials")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate credential schema: %v", err)
	}

	store := sessionpostgres.NewCredentialStore(db, "", tokenTTLFromEnv())
	if err := store.PurgeExpired(ctx); err != nil {
		log.Fatalf("failed to purge credentials: %v", err)
	}
	logger.Info("credential purge completed")
}

func tokenTTLFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("STOREFRONT_TOKEN_TTL_HOURS"))
	if raw == "" {
		return sessionpostgres.DefaultTokenTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return sessionpostgres.DefaultTokenTTL
	}
	return time.Duration(hours) * time.Hour
}
