package edgecache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/config"
	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open builds the store selected by cfg.Cache.Backend. The returned close
// function releases any connections and is never nil. A nil store means
// caching is disabled.
func Open(ctx context.Context, cfg *config.Config) (core.CacheStore, func(), error) {
	switch strings.ToLower(cfg.Cache.Backend) {
	case config.CacheMemory:
		return NewMemory(cfg.Cache.Capacity, cfg.Cache.Shards), func() {}, nil

	case config.CachePostgres:
		pool, err := openPool(ctx, &cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		store := NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return store, pool.Close, nil

	case config.CacheNone:
		return nil, func() {}, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func openPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to cache database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
