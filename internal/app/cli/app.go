package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/Apurer/storefront-client/internal/clients/http/storefront"
	cataloggateway "github.com/Apurer/storefront-client/internal/domains/catalog/adapters/gateway"
	catalogobs "github.com/Apurer/storefront-client/internal/domains/catalog/adapters/observability"
	catalogapp "github.com/Apurer/storefront-client/internal/domains/catalog/application"
	catalogports "github.com/Apurer/storefront-client/internal/domains/catalog/ports"
	ordersgateway "github.com/Apurer/storefront-client/internal/domains/orders/adapters/gateway"
	ordersobs "github.com/Apurer/storefront-client/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/storefront-client/internal/domains/orders/application"
	ordersports "github.com/Apurer/storefront-client/internal/domains/orders/ports"
	sessionfile "github.com/Apurer/storefront-client/internal/domains/session/adapters/file"
	sessiongateway "github.com/Apurer/storefront-client/internal/domains/session/adapters/gateway"
	sessionmemory "github.com/Apurer/storefront-client/internal/domains/session/adapters/memory"
	sessionobs "github.com/Apurer/storefront-client/internal/domains/session/adapters/observability"
	sessionpostgres "github.com/Apurer/storefront-client/internal/domains/session/adapters/postgres"
	sessionredis "github.com/Apurer/storefront-client/internal/domains/session/adapters/redis"
	sessionapp "github.com/Apurer/storefront-client/internal/domains/session/application"
	sessionports "github.com/Apurer/storefront-client/internal/domains/session/ports"
	"github.com/Apurer/storefront-client/internal/platform/migrations"
	platformobservability "github.com/Apurer/storefront-client/internal/platform/observability"
	platformpostgres "github.com/Apurer/storefront-client/internal/platform/postgres"
	"github.com/Apurer/storefront-client/internal/platform/redisx"
)

// App is the explicitly constructed context every command runs against. It
// owns the single credential store and catalog cache of the process.
type App struct {
	Config      Config
	Logger      *slog.Logger
	Client      *storefront.Client
	Credentials sessionports.CredentialStore
	Session     sessionports.Service
	Catalog     catalogports.Service
	Orders      ordersports.Reconciler
	Submitter   ordersports.Submitter
}

// NewApp wires the domains. instruments may be nil. The returned cleanup
// closes backend connections.
func NewApp(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*App, func(), error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}

	store, cleanup, err := buildCredentialStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	burst := int(math.Max(1, math.Ceil(cfg.RateLimitRPS)))
	client, err := storefront.NewClient(cfg.APIURL,
		storefront.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout, Transport: instruments.Transport(nil)}),
		storefront.WithTokenSource(store),
		storefront.WithRateLimit(cfg.RateLimitRPS, burst),
		storefront.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var resolver sessionports.IdentityResolver = sessionapp.NewUnverifiedResolver(store)
	if cfg.VerifySecret != "" {
		resolver = sessionapp.NewHMACResolver(store, []byte(cfg.VerifySecret))
	}
	session := sessionobs.New(
		sessionapp.NewService(sessiongateway.New(client), store, resolver),
		sessionobs.WithLogger(logger),
		sessionobs.WithTracer(instruments.Tracer("internal.session.application")),
		sessionobs.WithMeter(instruments.Meter("internal.session.application")),
	)

	catalog := catalogobs.New(
		catalogapp.NewCache(cataloggateway.New(client), catalogapp.WithLogger(logger)),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	ordersGateway := ordersgateway.New(client)
	reconciler := ordersobs.NewReconciler(
		ordersapp.NewReconciler(ordersGateway, cfg.OrderSource),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	submitter := ordersobs.NewSubmitter(
		ordersapp.NewSubmitter(session, ordersGateway, catalog,
			ordersapp.WithListRefresher(reconciler),
			ordersapp.WithSubmitterLogger(logger)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Client:      client,
		Credentials: store,
		Session:     session,
		Catalog:     catalog,
		Orders:      reconciler,
		Submitter:   submitter,
	}, cleanup, nil
}

func buildCredentialStore(ctx context.Context, cfg Config, logger *slog.Logger) (sessionports.CredentialStore, func(), error) {
	switch cfg.CredentialBackend {
	case BackendMemory:
		return sessionmemory.NewCredentialStore(), func() {}, nil
	case BackendPostgres:
		db, closeDB, err := platformpostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres credential backend: %w", err)
		}
		if err := migrations.Run(db); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("migrate credential schema: %w", err)
		}
		store := sessionpostgres.NewCredentialStore(db, "", cfg.TokenTTL)
		if err := store.PurgeExpired(ctx); err != nil {
			logger.Warn("failed to purge expired credentials", slog.String("error", err.Error()))
		}
		logger.Debug("credential store configured with postgres")
		return store, closeDB, nil
	case BackendRedis:
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis credential backend: %w", err)
		}
		logger.Debug("credential store configured with redis", slog.String("addr", cfg.RedisAddr))
		return sessionredis.NewCredentialStore(rdb, "", cfg.TokenTTL), func() { _ = rdb.Close() }, nil
	default:
		store, err := sessionfile.NewCredentialStore(cfg.CredentialFile)
		if err != nil {
			logger.Warn("credential file unavailable, falling back to in-memory store", slog.String("error", err.Error()))
			return sessionmemory.NewCredentialStore(), func() {}, nil
		}
		logger.Debug("credential store configured with file", slog.String("path", store.Path()))
		return store, func() {}, nil
	}
}
