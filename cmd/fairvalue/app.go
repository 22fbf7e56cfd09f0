package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/seenimoa/fairvalue/internal/config"
	"github.com/seenimoa/fairvalue/internal/infra"
	"github.com/seenimoa/fairvalue/internal/provider"
	"github.com/seenimoa/fairvalue/internal/providers/yfinance"
	"github.com/seenimoa/fairvalue/internal/service"
	"github.com/seenimoa/fairvalue/internal/snapshot"
	"github.com/seenimoa/fairvalue/internal/store"
)

// app holds the wired service and the resources to release on exit.
type app struct {
	svc     *service.Service
	cleanup []func()
}

func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// newApp wires the data source, snapshot cache, run store and service
// from cfg.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}

	registry := provider.NewRegistry()
	if err := registry.Register(yfinance.New(yfinance.Options{
		BaseURL:       cfg.Data.BaseURL,
		TimeseriesURL: cfg.Data.TimeseriesURL,
		HTTPClient:    &http.Client{Timeout: cfg.Data.Timeout()},
		Limiter:       infra.PerSecond(cfg.Data.RateLimit),
	})); err != nil {
		return nil, err
	}
	source, err := registry.Get(cfg.Data.Provider)
	if err != nil {
		return nil, err
	}

	cache, err := newSnapshotCache(cfg, log, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	normalizer := snapshot.New(source, snapshot.WithCache(cache), snapshot.WithLogger(log))

	opts := []service.Option{
		service.WithDefaults(cfg.Valuation),
		service.WithConcurrency(cfg.Batch.Concurrency),
		service.WithLogger(log),
	}
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cleanup = append(a.cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		log.Debug("valuation history enabled", "backend", "postgres")
		opts = append(opts, service.WithRunStore(pg))
	}

	a.svc = service.New(normalizer, opts...)
	return a, nil
}

func newSnapshotCache(cfg *config.Config, log *slog.Logger, a *app) (snapshot.SnapshotCache, error) {
	switch cfg.Data.CacheBackend {
	case "", "memory":
		return snapshot.NewMemoryCache(cfg.Data.CacheDuration(), nil), nil
	case "redis":
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("cache_backend redis requires redis.url (or REDIS_URL)")
		}
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		a.cleanup = append(a.cleanup, func() { rdb.Close() })
		log.Debug("snapshot cache enabled", "backend", "redis")
		return snapshot.NewRedisCache(rdb, cfg.Data.CacheDuration(), log), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Data.CacheBackend)
	}
}
