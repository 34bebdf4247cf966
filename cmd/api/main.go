package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	appconfig "claim-navigator/internal/config"
	pgRepo "claim-navigator/internal/infra/adapter/persistence/postgres"
	"claim-navigator/internal/infra/billing"
	"claim-navigator/internal/infra/db"
	"claim-navigator/internal/infra/generator"
	"claim-navigator/internal/observability/logging"
	"claim-navigator/internal/observability/tracing"
	"claim-navigator/internal/quota"
	"claim-navigator/pkg/config"
	"claim-navigator/pkg/ratelimit"

	hhttp "claim-navigator/internal/handler/http"
	hauth "claim-navigator/internal/handler/http/auth"
	"claim-navigator/internal/handler/http/document"
	"claim-navigator/internal/handler/http/guard"
	"claim-navigator/internal/handler/http/middleware"
	"claim-navigator/internal/handler/http/requestid"
	authservice "claim-navigator/internal/service/auth"
	"claim-navigator/internal/service/entitlement"
)

func main() {
	logger := initLogger()
	validateCredentialConfig(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(logger, database, version)

	runServer(logger, components, version)
}

// initLogger builds the JSON logger and installs it as the slog
// default so package-level logging shares it.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// validateCredentialConfig refuses to start with a weak signing secret
// or weak admin credentials. A misconfigured demo account only
// disables the demo role.
func validateCredentialConfig(logger *slog.Logger) {
	if err := hauth.ValidateJWTSecret(); err != nil {
		logger.Error("JWT secret validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := hauth.ValidateAdminCredentials(); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	hauth.ValidateViewerCredentials(logger)
}

// initDatabase opens the connection pool and brings the schema up to
// date before anything serves traffic.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func getVersion() string {
	return config.GetEnvString("VERSION", "dev")
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler      http.Handler
	CounterStore ratelimit.CounterStore
	StoreConfig  config.StoreConfig

	// StoreIsLocal reports whether the counter store lives in this
	// process. The API runs the cleanup loop only for the in-memory
	// store; the worker owns Postgres cleanup.
	StoreIsLocal bool
}

// setupServer wires the guard and its dependencies and returns the
// configured HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, database *sql.DB, version string) *ServerComponents {
	rateLimitConfig, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}
	storeConfig, err := config.LoadStoreConfig()
	if err != nil {
		logger.Error("failed to load store configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Load trusted proxy configuration for IP extraction
	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	// Counter store: Postgres for multi-instance deployments, in-memory
	// otherwise. The in-memory store needs the local cleanup loop.
	var counterStore ratelimit.CounterStore
	storeIsLocal := false
	switch backend := config.GetEnvString("RATELIMIT_STORE", "memory"); backend {
	case "postgres":
		counterStore = pgRepo.NewCounterStore(database)
		logger.Info("rate limiting: postgres counter store")
	default:
		counterStore = ratelimit.NewInMemoryCounterStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: storeConfig.MaxKeys,
		})
		storeIsLocal = true
		logger.Info("rate limiting: in-memory counter store",
			slog.Int("max_keys", storeConfig.MaxKeys))
	}

	limiter := ratelimit.NewTieredLimiter(rateLimitConfig, counterStore, nil, ratelimit.NewPrometheusMetrics())

	if !rateLimitConfig.Enabled {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	// Quota tracking and entitlements
	tracker := quota.NewTracker(pgRepo.NewQuotaRepo(database), nil)

	var billingProvider entitlement.BillingProvider
	if ids := config.GetEnvStringList("BILLING_STATIC_SUBSCRIBERS", nil); len(ids) > 0 {
		billingProvider = billing.NewStaticProvider(ids)
		logger.Warn("billing: static provider enabled - development only",
			slog.Int("subscriber_count", len(ids)))
	} else {
		billingProvider = billing.NewRepositoryProvider(pgRepo.NewSubscriptionRepo(database), nil)
	}
	entitlements := entitlement.NewService(billingProvider, entitlement.DefaultConfig(), nil)

	// Auth. Password policy and the public endpoint list come from the
	// security config file when one is provided.
	minPasswordLength := 12
	weakPasswords := []string{"password", "123456", "admin", "test", "secret"}
	publicEndpoints := hauth.PublicEndpoints
	if path := os.Getenv("SECURITY_CONFIG_PATH"); path != "" {
		secCfg, err := appconfig.LoadSecurityConfig(path)
		if err != nil {
			logger.Error("failed to load security configuration", slog.Any("error", err))
			os.Exit(1)
		}
		minPasswordLength = secCfg.GetMinPasswordLength()
		if wp := secCfg.GetWeakPasswords(); len(wp) > 0 {
			weakPasswords = wp
		}
		if pe := secCfg.GetPublicEndpoints(); len(pe) > 0 {
			publicEndpoints = pe
		}
		logger.Info("security configuration loaded",
			slog.String("path", path),
			slog.String("auth_provider", secCfg.GetAuthProvider()))
	}

	resolver := hauth.NewResolver([]byte(os.Getenv("JWT_SECRET")))
	authProvider := hauth.NewMultiUserAuthProvider(minPasswordLength, weakPasswords)
	authService := authservice.NewAuthService(authProvider, publicEndpoints)

	devMode := os.Getenv("APP_ENV") == "development"
	g := guard.New(limiter, tracker, entitlements, resolver, ipExtractor, devMode)

	letterGen := buildLetterGenerator(logger)

	rootMux := setupRoutes(database, version, g, resolver, authService, tracker, letterGen, rateLimitConfig, counterStore)
	handler := applyMiddleware(logger, rootMux)

	return &ServerComponents{
		Handler:      handler,
		CounterStore: counterStore,
		StoreConfig:  storeConfig,
		StoreIsLocal: storeIsLocal,
	}
}

// buildLetterGenerator selects the letter generation provider.
// LETTER_PROVIDER: "anthropic" (default), "openai", or "static".
func buildLetterGenerator(logger *slog.Logger) generator.LetterGenerator {
	switch provider := config.GetEnvString("LETTER_PROVIDER", "anthropic"); provider {
	case "openai":
		gen, err := generator.NewOpenAI(os.Getenv("OPENAI_API_KEY"))
		if err != nil {
			logger.Error("failed to configure OpenAI letter generator", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("letter generation: openai provider")
		return gen
	case "static":
		logger.Warn("letter generation: static provider - development only")
		return generator.NewStatic()
	default:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Error("ANTHROPIC_API_KEY must be set for the anthropic letter provider")
			os.Exit(1)
		}
		logger.Info("letter generation: anthropic provider")
		return generator.NewClaude(apiKey)
	}
}

// setupRoutes registers all HTTP routes (public and guarded).
func setupRoutes(
	database *sql.DB,
	version string,
	g *guard.Guard,
	resolver *hauth.Resolver,
	authService *authservice.AuthService,
	tracker *quota.Tracker,
	letterGen generator.LetterGenerator,
	rateLimitConfig ratelimit.Config,
	counterStore ratelimit.CounterStore,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Token issuing is unauthenticated but tightly rate limited:
	// 5 requests per minute per caller.
	mux.Handle("POST /auth/token", g.Wrap(
		hauth.TokenHandler(authService, resolver),
		guard.WithRateLimit(time.Minute, 5),
	))

	// Letter generation meters the appeal_letter feature: free tier
	// gets document.FreeLetterLimit per month, subscribers unlimited.
	mux.Handle("POST /documents/appeal-letter", g.Wrap(
		document.LetterHandler{Generator: letterGen, Usage: tracker},
		guard.WithFeatureAccess(document.FeatureAppealLetter, document.FreeLetterLimit),
		guard.WithRateLimit(rateLimitConfig.KeyWindow, rateLimitConfig.KeyLimit),
	))

	mux.Handle("GET /claims/usage", g.Wrap(
		document.UsageHandler{Summaries: tracker},
		guard.WithAuth(),
		guard.WithRateLimit(rateLimitConfig.KeyWindow, rateLimitConfig.KeyLimit),
	))

	// Health and metrics endpoints bypass the guard entirely.
	mux.Handle("/healthz", &hhttp.HealthHandler{
		DB:                 database,
		Version:            version,
		CounterStore:       counterStore,
		RateLimiterEnabled: rateLimitConfig.Enabled,
	})
	mux.Handle("/readyz", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/livez", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	return mux
}

// applyMiddleware wraps the handler with the ambient middleware chain.
// Order outermost to innermost: Request ID, Recovery, Tracing, Logging,
// Security Headers, Input Validation, Body Limit, Timeout, Metrics.
// Tracing sits outside Logging so request logs carry the trace ID.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler

	// Apply in reverse order (innermost to outermost)
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.Timeout(30 * time.Second)(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.InputValidation()(chain)
	chain = hhttp.SecurityHeaders()(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The in-memory counter store is pruned locally. The Postgres
	// store is pruned by the maintenance worker instead.
	if components.StoreIsLocal {
		go hhttp.StartRateLimitCleanup(ctx, components.CounterStore,
			components.StoreConfig.CleanupInterval, components.StoreConfig.CleanupMaxAge)
	}

	hhttp.StartSLOUpdater(ctx, logger, time.Minute)

	addr := config.GetEnvString("API_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
