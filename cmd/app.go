package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/cache"
	"github.com/klarifikasi/klarifikasi-api/internal/config"
	"github.com/klarifikasi/klarifikasi-api/internal/llm"
	"github.com/klarifikasi/klarifikasi-api/internal/pipeline"
	"github.com/klarifikasi/klarifikasi-api/internal/resilience"
	"github.com/klarifikasi/klarifikasi-api/internal/search"
	"github.com/klarifikasi/klarifikasi-api/internal/store"
)

// appEnv holds the initialized store, cache, breakers and checker used by
// the serve, check and batch commands.
type appEnv struct {
	Store    store.Store
	Cache    cache.Cache // may be nil
	Breakers *resilience.Registry
	Checker  *pipeline.Checker
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates cfg for mode, opens and migrates the store, connects
// the optional cache and builds the checker. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		zap.L().Warn("config: fallback mode", zap.String("detail", w))
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	env := &appEnv{
		Store:    st,
		Cache:    openCache(ctx, cfg.Cache),
		Breakers: resilience.NewRegistry(resilience.BreakerFromSettings(cfg.Resilience.BreakerThreshold, cfg.Resilience.BreakerCooldownSecs)),
	}

	searcher := search.New(cfg, env.Breakers, env.Cache)
	provider := llm.New(cfg, env.Breakers)
	env.Checker = pipeline.NewChecker(cfg, searcher, provider, st)

	zap.L().Info("app: initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", env.Cache != nil),
		zap.String("llm_provider", provider.Name()),
		zap.Bool("search_configured", cfg.SearchConfigured()),
		zap.Bool("llm_configured", cfg.LLMConfigured()),
	)
	return env, nil
}

// openStore opens the history store and applies its schema.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	st, err := store.Open(ctx, sc)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// openCache connects to Redis when configured. An unreachable cache is
// logged and skipped.
func openCache(ctx context.Context, cc config.CacheConfig) cache.Cache {
	if cc.RedisURL == "" {
		return nil
	}
	c, err := cache.NewRedis(cc.RedisURL)
	if err != nil {
		zap.L().Warn("cache: disabled", zap.Error(err))
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		zap.L().Warn("cache: redis unreachable, continuing without cache", zap.Error(err))
		_ = c.Close()
		return nil
	}
	return c
}
