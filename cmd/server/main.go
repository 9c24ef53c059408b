package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sheetjson/internal/config"
	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/JonMunkholm/sheetjson/internal/edgecache"
	"github.com/JonMunkholm/sheetjson/internal/logging"
	"github.com/JonMunkholm/sheetjson/internal/provider"
	"github.com/JonMunkholm/sheetjson/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	src, err := provider.New(&cfg.Provider)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := edgecache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	policy := core.CachePolicy{
		PublicTTL:         cfg.Cache.PublicTTL,
		PrivateDefaultTTL: cfg.Cache.PrivateDefaultTTL,
	}
	service := core.NewService(src, cache, policy, core.NewWriteLimiter(cfg.Cache.WriteConcurrency))
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		service.StartCacheSweeper(gctx, cfg.Cache.SweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Responses are out; let pending cache writes land before the
		// store is closed.
		if st := service.Status().Writes; st.Active > 0 {
			slog.Info("waiting for cache writes", "active", st.Active)
			if err := service.WaitForCacheWrites(shutdownCtx); err != nil {
				slog.Warn("cache writes did not complete in time", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
