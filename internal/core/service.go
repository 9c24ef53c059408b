package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetjson/internal/logging"
)

// Service runs the sheet pipeline: cache lookup, resolution, value fetch,
// windowing, projection, and background cache population.
type Service struct {
	provider Provider
	cache    CacheStore
	policy   CachePolicy
	writes   *WriteLimiter
	now      func() time.Time
}

// NewService creates a Service. A nil cache disables caching; a nil
// limiter gets the default capacity.
func NewService(provider Provider, cache CacheStore, policy CachePolicy, writes *WriteLimiter) *Service {
	if writes == nil {
		writes = NewWriteLimiter(0)
	}
	return &Service{
		provider: provider,
		cache:    cache,
		policy:   policy,
		writes:   writes,
		now:      time.Now,
	}
}

// Policy returns the cache policy the service plans with.
func (s *Service) Policy() CachePolicy {
	return s.policy
}

// Fetch resolves req and returns its column projection. It never touches
// the cache.
func (s *Service) Fetch(ctx context.Context, req SheetRequest) (Projection, error) {
	sheet, err := Resolve(ctx, req, s.provider.Metadata)
	if err != nil {
		return Projection{}, err
	}

	table, err := s.provider.Values(ctx, sheet)
	if err != nil {
		return Projection{}, err
	}

	w := SelectWindow(len(table.Rows), req.RowLimit, req.RowOffset)
	logging.FromContext(ctx).Debug("sheet fetched",
		"document_id", sheet.DocumentID,
		"title", sheet.Title,
		"rows", len(table.Rows),
		"window_start", w.Start,
		"window_end", w.End,
	)
	return ProjectColumns(table.Headers, table.Rows, w), nil
}

// Serve answers req under plan. A cache hit short-circuits the provider.
// On a miss that is worth caching, the entry to store is returned alongside
// the response; pass it to StoreAsync once the response has been written.
func (s *Service) Serve(ctx context.Context, req SheetRequest, plan CachePlan) (Response, *CacheEntry) {
	logger := logging.FromContext(ctx)

	if body, ok := s.lookup(ctx, plan); ok {
		logger.Debug("cache hit", "key", plan.Key)
		return Success(body, plan, CacheHit), nil
	}
	logger.Debug("cache miss", "key", plan.Key)

	proj, err := s.Fetch(ctx, req)
	if err != nil {
		msg := MapError(err)
		logger.Warn("sheet request failed", "error", err, "code", msg.Code)
		return Failure(err), nil
	}

	body, err := EncodeProjection(proj)
	if err != nil {
		return Failure(fmt.Errorf("encode response: %w", err)), nil
	}

	resp := Success(body, plan, CacheMiss)
	if s.cache == nil || !plan.Cacheable() {
		return resp, nil
	}
	return resp, &CacheEntry{Key: plan.Key, Payload: body, TTL: plan.TTL}
}

// StoreAsync writes entry to the cache in the background. It never blocks:
// when the write limiter is full the entry is dropped. The write outlives
// the request context's cancellation.
func (s *Service) StoreAsync(ctx context.Context, entry *CacheEntry) {
	if entry == nil || s.cache == nil {
		return
	}
	logger := logging.FromContext(ctx)
	writeCtx := context.WithoutCancel(ctx)

	e := *entry
	e.StoredAt = s.now()

	started := s.writes.Go(func() {
		if err := s.cache.Put(writeCtx, e); err != nil {
			logger.Error("cache write failed", "key", e.Key, "error", err)
		}
	})
	if !started {
		logger.Warn("cache write dropped, limiter full", "key", e.Key)
	}
}

// WaitForCacheWrites blocks until background cache writes finish or ctx ends.
func (s *Service) WaitForCacheWrites(ctx context.Context) error {
	return s.writes.WaitForDrain(ctx)
}

// lookup returns a fresh cached payload. Store errors count as misses.
// A plan that disables caching never reads either.
func (s *Service) lookup(ctx context.Context, plan CachePlan) ([]byte, bool) {
	if s.cache == nil || !plan.Cacheable() {
		return nil, false
	}
	entry, ok, err := s.cache.Get(ctx, plan.Key)
	if err != nil {
		logging.FromContext(ctx).Warn("cache read failed", "key", plan.Key, "error", err)
		return nil, false
	}
	if !ok || !entry.Fresh(s.now()) {
		return nil, false
	}
	return entry.Payload, true
}

// ServiceStatus reports cache and background write state.
type ServiceStatus struct {
	Cache  *CacheStats        `json:"cache,omitempty"`
	Writes WriteLimiterStatus `json:"writes"`
}

type statser interface {
	Stats() CacheStats
}

// Status returns a snapshot for the status endpoint.
func (s *Service) Status() ServiceStatus {
	st := ServiceStatus{Writes: s.writes.Status()}
	if c, ok := s.cache.(statser); ok {
		stats := c.Stats()
		st.Cache = &stats
	}
	return st
}
