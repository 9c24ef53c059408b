package edgecache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by Postgres, satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sheetjson_cache (
	id         UUID PRIMARY KEY,
	cache_key  TEXT NOT NULL,
	payload    BYTEA NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sheetjson_cache_expires_at_idx ON sheetjson_cache (expires_at);
`

const (
	getSQL = `SELECT payload, stored_at, expires_at FROM sheetjson_cache WHERE id = $1`

	putSQL = `
INSERT INTO sheetjson_cache (id, cache_key, payload, stored_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	payload    = EXCLUDED.payload,
	stored_at  = EXCLUDED.stored_at,
	expires_at = EXCLUDED.expires_at`

	sweepSQL = `DELETE FROM sheetjson_cache WHERE expires_at <= $1`

	countSQL = `SELECT count(*) FROM sheetjson_cache`
)

// Postgres stores entries in a table so replicas share one cache. Rows are
// keyed by a name-based UUID of the cache key.
type Postgres struct {
	db  DBTX
	now func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	expirations atomic.Int64
	entries     atomic.Int64
}

// NewPostgres creates a store on db. Call EnsureSchema before first use.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// EnsureSchema creates the cache table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return p.refreshCount(ctx)
}

// EntryID returns the row id for a cache key.
func EntryID(key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
}

func (p *Postgres) Get(ctx context.Context, key string) (core.CacheEntry, bool, error) {
	var (
		payload   []byte
		storedAt  time.Time
		expiresAt time.Time
	)
	err := p.db.QueryRow(ctx, getSQL, EntryID(key)).Scan(&payload, &storedAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		p.misses.Add(1)
		return core.CacheEntry{}, false, nil
	}
	if err != nil {
		return core.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}

	entry := core.CacheEntry{
		Key:      key,
		Payload:  payload,
		TTL:      expiresAt.Sub(storedAt),
		StoredAt: storedAt,
	}
	if !entry.Fresh(p.now()) {
		p.expirations.Add(1)
		p.misses.Add(1)
		return core.CacheEntry{}, false, nil
	}
	p.hits.Add(1)
	return entry, true, nil
}

// Put upserts entry; the most recent write for a key wins.
func (p *Postgres) Put(ctx context.Context, entry core.CacheEntry) error {
	if entry.Key == "" || entry.TTL <= 0 {
		return nil
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = p.now()
	}
	_, err := p.db.Exec(ctx, putSQL,
		EntryID(entry.Key), entry.Key, entry.Payload, entry.StoredAt, entry.ExpiresAt())
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Sweep deletes rows that expired at or before now.
func (p *Postgres) Sweep(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, sweepSQL, now)
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	removed := tag.RowsAffected()
	p.expirations.Add(removed)
	if err := p.refreshCount(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

func (p *Postgres) refreshCount(ctx context.Context) error {
	var n int64
	if err := p.db.QueryRow(ctx, countSQL).Scan(&n); err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}
	p.entries.Store(n)
	return nil
}

// Stats returns this process's counters. Entries is the row count as of
// the last sweep.
func (p *Postgres) Stats() core.CacheStats {
	return core.CacheStats{
		Entries:     int(p.entries.Load()),
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
		Expirations: p.expirations.Load(),
	}
}
