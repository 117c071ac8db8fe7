// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis_rate/v10"
	"github.com/lmittmann/tint"

	"github.com/omarkt13/seafable/internal/admin"
	"github.com/omarkt13/seafable/internal/auth"
	"github.com/omarkt13/seafable/internal/business"
	"github.com/omarkt13/seafable/internal/config"
	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/customer"
	"github.com/omarkt13/seafable/internal/experience"
	"github.com/omarkt13/seafable/internal/health"
	"github.com/omarkt13/seafable/internal/identity"
	"github.com/omarkt13/seafable/internal/middleware"
	"github.com/omarkt13/seafable/internal/server"
)

const (
	drainDelay         = 5 * time.Second
	tokenPurgeInterval = time.Hour
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else if telemetry.Enabled() {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
			"sample_rate", cfg.Otel.SampleRate,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	if pingErr := redis.Ping(ctx); pingErr != nil {
		logger.Warn("redis unreachable, rate limits and sign-in throttle use process memory",
			"error", pingErr,
		)
	} else {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	}

	jwtManager, err := loadJWTManager(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	identitySvc := identity.NewService(
		identity.NewAccountRepository(db.DB),
		identity.NewTokenRepository(db.DB),
		jwtManager,
		identity.NewSignInThrottle(
			redis_rate.NewLimiter(redis.Client),
			cfg.Identity.SignInAttempts,
			cfg.Identity.SignInPeriod,
		),
		identity.NewTxFunc(db.DB),
		cfg.Identity,
	)

	customerSvc := customer.NewService(customer.NewRepository(db.DB), logger)
	customerHandler := customer.NewHandler(customerSvc)

	businessSvc := business.NewService(business.NewRepository(db.DB), identitySvc, logger)
	businessHandler := business.NewHandler(businessSvc)

	authSvc := auth.NewService(identitySvc, customerSvc, logger)
	authHandler := auth.NewHandler(authSvc)

	catalog := experience.SeedCatalog()
	experienceHandler := experience.NewHandler(catalog, experience.NewEchoer())

	memStore := middleware.NewMemoryStore()
	go memStore.Run(ctx, cfg.RateLimit.SweepInterval)

	authLimiter := newLimiter("auth", cfg.RateLimit, cfg.RateLimit.Auth, redis, memStore)
	apiLimiter := newLimiter("api", cfg.RateLimit, cfg.RateLimit.API, redis, memStore)
	searchLimiter := newLimiter("search", cfg.RateLimit, cfg.RateLimit.Search, redis, memStore)
	logger.Info("rate limiters configured",
		"backend", cfg.RateLimit.Backend,
		"auth", cfg.RateLimit.Auth.Requests,
		"api", cfg.RateLimit.API.Requests,
		"search", cfg.RateLimit.Search.Requests,
	)

	go purgeExpiredTokens(ctx, identitySvc, logger)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		LimiterLen: memStore.Len,
		CatalogLen: catalog.Len,
		Accounts:   identitySvc,
		Customers:  customerSvc,
		Hosts:      businessSvc,
		Logger:     logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		CORS:          cfg.CORS,
		Production:    cfg.IsProduction(),
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authenticator := middleware.Authenticator(identitySvc)
	authed := func(next http.Handler) http.Handler {
		return apiLimiter.Handler(authenticator(next))
	}

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authLimiter.Handler, authed)
		businessHandler.RegisterRoutes(r, authLimiter.Handler, authed)
		customerHandler.RegisterRoutes(r, authed)
		experienceHandler.RegisterRoutes(r, searchLimiter.Handler, apiLimiter.Handler)
		adminHandler.RegisterRoutes(r, authed, middleware.RequireAdmin)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// newLimiter builds one fixed-window limiter. With the redis backend the
// shared memory store takes over while Redis is unreachable.
func newLimiter(
	name string,
	rlCfg config.RateLimitConfig,
	window config.WindowConfig,
	redis *core.Redis,
	memStore *middleware.MemoryStore,
) *middleware.RateLimiter {
	limiterCfg := middleware.RateLimitConfig{
		Name:     name,
		Limit:    window.Requests,
		Window:   window.Window,
		Store:    memStore,
		FailOpen: rlCfg.FailOpen,
	}

	if rlCfg.Backend == config.RateLimitBackendRedis {
		limiterCfg.Store = middleware.NewRedisStore(redis.Client)
		limiterCfg.Fallback = memStore
	}

	return middleware.NewRateLimiter(limiterCfg)
}

// loadJWTManager reads the signing key from disk. In development a missing
// key pair is generated on first start.
func loadJWTManager(cfg *config.Config, logger *slog.Logger) (*identity.JWTManager, error) {
	_, err := os.Stat(cfg.JWT.PrivateKeyPath)
	if errors.Is(err, fs.ErrNotExist) && cfg.IsDevelopment() {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.JWT.PrivateKeyPath), 0o700); mkErr != nil {
			return nil, mkErr
		}
		if genErr := identity.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); genErr != nil {
			logger.Warn("could not write signing keys, using an in-memory key", "error", genErr)
			return identity.NewEphemeralJWTManager(cfg.JWT)
		}
		logger.Info("generated development signing keys",
			"private_key", cfg.JWT.PrivateKeyPath,
			"public_key", cfg.JWT.PublicKeyPath,
		)
	}

	return identity.NewJWTManager(cfg.JWT)
}

func purgeExpiredTokens(ctx context.Context, svc *identity.Service, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Warn("refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired refresh tokens", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == "error" && a.Value.Kind() == slog.KindAny {
					if err, ok := a.Value.Any().(error); ok {
						return tint.Err(err)
					}
				}
				return a
			},
		})
	}

	return slog.New(handler)
}
