// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/identity"
)

// AccountService is the slice of the identity provider admins may drive.
type AccountService interface {
	ConfirmEmail(ctx context.Context, accountID string) error
	GetUser(ctx context.Context, accountID string) (*identity.User, error)
	CountAccounts(ctx context.Context) (int64, error)
}

// Counter reports the number of rows behind a profile table.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
	limiterLen func() int
	catalogLen func() int
	accounts   AccountService
	customers  Counter
	hosts      Counter
	logger     *slog.Logger
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	LimiterLen func() int
	CatalogLen func() int
	Accounts   AccountService
	Customers  Counter
	Hosts      Counter
	Logger     *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		limiterLen: cfg.LimiterLen,
		catalogLen: cfg.CatalogLen,
		accounts:   cfg.Accounts,
		customers:  cfg.Customers,
		hosts:      cfg.Hosts,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/marketplace", h.GetMarketplaceStats)
		r.Post("/accounts/{id}/confirm", h.ConfirmAccount)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime:     runtimeStats(),
		Marketplace: h.marketplaceStats(ctx),
	}

	core.OK(w, response)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

func (h *Handler) GetMarketplaceStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.marketplaceStats(r.Context()))
}

// ConfirmAccount marks an account's email as confirmed so it can sign in
// when confirmation is required.
func (h *Handler) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		core.InternalServerError(w, errors.New("account service not configured"))
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.accounts.ConfirmEmail(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "account")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.logger.Info("account confirmed by admin", "account_id", id)

	core.OK(w, user)
}

func ping(ctx context.Context, fn func(context.Context) error) bool {
	if fn == nil {
		return true
	}
	return fn(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

// marketplaceStats reports -1 for any count that could not be read.
func (h *Handler) marketplaceStats(ctx context.Context) MarketplaceStats {
	stats := MarketplaceStats{
		Accounts:  -1,
		Customers: -1,
		Hosts:     -1,
	}

	if h.accounts != nil {
		stats.Accounts = h.count(ctx, "accounts", h.accounts.CountAccounts)
	}
	if h.customers != nil {
		stats.Customers = h.count(ctx, "customers", h.customers.Count)
	}
	if h.hosts != nil {
		stats.Hosts = h.count(ctx, "hosts", h.hosts.Count)
	}
	if h.limiterLen != nil {
		stats.RateLimitKeys = h.limiterLen()
	}
	if h.catalogLen != nil {
		stats.Experiences = h.catalogLen()
	}

	return stats
}

func (h *Handler) count(
	ctx context.Context,
	name string,
	fn func(context.Context) (int64, error),
) int64 {
	n, err := fn(ctx)
	if err != nil {
		h.logger.Warn("admin count failed", "table", name, "error", err)
		return -1
	}
	return n
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}
