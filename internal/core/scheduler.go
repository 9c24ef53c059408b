package core

// scheduler.go runs background maintenance for the edge cache.
//
// Stores that keep expired entries around until they are read (the
// in-memory shards, the Postgres table) implement Sweeper. The sweeper runs
// immediately on start, then on every tick, and stops with its context.
// Failures are logged and do not stop the loop.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

// Sweeper removes entries that expired before now and reports how many.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

// StartCacheSweeper periodically removes expired cache entries.
// It returns immediately if the cache cannot be swept.
func (s *Service) StartCacheSweeper(ctx context.Context, interval time.Duration) {
	sw, ok := s.cache.(Sweeper)
	if !ok {
		slog.Debug("cache sweeper disabled, store does not expire entries")
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	slog.Info("cache sweeper started", "interval", interval.String())

	s.runSweep(ctx, sw)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, sw)
		}
	}
}

// runSweep performs one sweep.
func (s *Service) runSweep(ctx context.Context, sw Sweeper) {
	start := time.Now()

	removed, err := sw.Sweep(ctx, s.now())
	if err != nil {
		slog.Error("cache sweep failed", "error", err)
		return
	}

	slog.Debug("cache sweep completed",
		"entries_removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
