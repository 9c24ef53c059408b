package edgecache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB keeps rows in a map and answers the handful of statements the
// store issues.
type fakeDB struct {
	mu   sync.Mutex
	rows map[uuid.UUID]fakeRow
	fail error
}

type fakeRow struct {
	key       string
	payload   []byte
	storedAt  time.Time
	expiresAt time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[uuid.UUID]fakeRow)}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return pgconn.CommandTag{}, f.fail
	}
	switch sql {
	case putSQL:
		f.rows[args[0].(uuid.UUID)] = fakeRow{
			key:       args[1].(string),
			payload:   args[2].([]byte),
			storedAt:  args[3].(time.Time),
			expiresAt: args[4].(time.Time),
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case sweepSQL:
		now := args[0].(time.Time)
		var n int
		for id, r := range f.rows {
			if !r.expiresAt.After(now) {
				delete(f.rows, id)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	default:
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	}
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return scanFunc(func(...any) error { return f.fail })
	}
	switch sql {
	case countSQL:
		n := int64(len(f.rows))
		return scanFunc(func(dest ...any) error {
			*dest[0].(*int64) = n
			return nil
		})
	case getSQL:
		r, ok := f.rows[args[0].(uuid.UUID)]
		return scanFunc(func(dest ...any) error {
			if !ok {
				return pgx.ErrNoRows
			}
			*dest[0].(*[]byte) = r.payload
			*dest[1].(*time.Time) = r.storedAt
			*dest[2].(*time.Time) = r.expiresAt
			return nil
		})
	}
	return scanFunc(func(...any) error { return errors.New("unexpected query") })
}

type scanFunc func(dest ...any) error

func (s scanFunc) Scan(dest ...any) error { return s(dest...) }

func newTestPostgres(db DBTX) *Postgres {
	p := NewPostgres(db)
	p.now = func() time.Time { return t0 }
	return p
}

func TestEntryID_Stable(t *testing.T) {
	assert.Equal(t, EntryID("public:/?docId=a"), EntryID("public:/?docId=a"))
	assert.NotEqual(t, EntryID("public:/?docId=a"), EntryID("private:/?docId=a"))
	assert.Equal(t, uuid.Version(5), EntryID("k").Version())
}

func TestPostgres_PutGet(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	p := newTestPostgres(db)
	require.NoError(t, p.EnsureSchema(ctx))

	require.NoError(t, p.Put(ctx, entry("k", time.Minute)))

	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "k", got.Key)
	assert.Equal(t, time.Minute, got.TTL)
	assert.Equal(t, []byte(`{"cols":{}}`), got.Payload)

	_, ok, err = p.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestPostgres_StaleIsMiss(t *testing.T) {
	ctx := context.Background()
	p := newTestPostgres(newFakeDB())

	require.NoError(t, p.Put(ctx, entry("k", time.Second)))
	p.now = func() time.Time { return t0.Add(time.Second) }

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), p.Stats().Expirations)
}

func TestPostgres_SkipsUncacheable(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	p := newTestPostgres(db)

	require.NoError(t, p.Put(ctx, entry("k", 0)))
	assert.Empty(t, db.rows)
}

func TestPostgres_Sweep(t *testing.T) {
	ctx := context.Background()
	p := newTestPostgres(newFakeDB())

	require.NoError(t, p.Put(ctx, entry("short", time.Second)))
	require.NoError(t, p.Put(ctx, entry("long", time.Hour)))

	removed, err := p.Sweep(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, p.Stats().Entries)
}

func TestPostgres_Errors(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.fail = errors.New("connection refused")
	p := newTestPostgres(db)

	_, _, err := p.Get(ctx, "k")
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, p.Put(ctx, entry("k", time.Minute)), "put cache entry")
	assert.ErrorContains(t, p.EnsureSchema(ctx), "create cache table")
}

// TestPostgres_Live runs against a real database when
// SHEETJSON_TEST_DATABASE_URL is set.
func TestPostgres_Live(t *testing.T) {
	dsn := os.Getenv("SHEETJSON_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHEETJSON_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	p := NewPostgres(pool)
	require.NoError(t, p.EnsureSchema(ctx))

	key := "public:/?docId=live-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM sheetjson_cache WHERE id = $1`, EntryID(key))
	})

	e := core.CacheEntry{Key: key, Payload: []byte(`{"cols":{"a":["1"]}}`), TTL: time.Minute, StoredAt: time.Now()}
	require.NoError(t, p.Put(ctx, e))

	e.Payload = []byte(`{"cols":{"a":["2"]}}`)
	require.NoError(t, p.Put(ctx, e))

	got, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"cols":{"a":["2"]}}`, string(got.Payload))

	removed, err := p.Sweep(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, ok, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
