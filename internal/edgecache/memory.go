// Package edgecache provides the key-value stores behind the edge cache:
// a sharded in-process LRU and a PostgreSQL table shared by replicas.
package edgecache

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/sheetjson/internal/core"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultCapacity = 10000
	DefaultShards   = 16
)

type shard struct {
	// mu makes Sweep's Keys, Peek and Remove sequence atomic; lru.Cache
	// only locks per call.
	mu    sync.Mutex
	items *lru.Cache[string, core.CacheEntry]
}

// Memory is an in-process cache split into independently locked shards.
// Each shard evicts its least recently used entry when full; entries past
// their TTL are dropped lazily on Get and in bulk by Sweep.
type Memory struct {
	shards []*shard
	now    func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// NewMemory creates a store holding about capacity entries over n shards.
// Non-positive arguments fall back to the defaults.
func NewMemory(capacity, n int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if n <= 0 {
		n = DefaultShards
	}
	if n > capacity {
		n = capacity
	}

	per := capacity / n
	m := &Memory{shards: make([]*shard, n), now: time.Now}
	for i := range m.shards {
		items, err := lru.New[string, core.CacheEntry](per)
		if err != nil {
			// per is always positive here
			panic(err)
		}
		m.shards[i] = &shard{items: items}
	}
	return m
}

func (m *Memory) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Get returns the entry for key. Expired entries are removed and reported
// as a miss.
func (m *Memory) Get(_ context.Context, key string) (core.CacheEntry, bool, error) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items.Get(key)
	if !ok {
		m.misses.Add(1)
		return core.CacheEntry{}, false, nil
	}
	if !entry.Fresh(m.now()) {
		s.items.Remove(key)
		m.expirations.Add(1)
		m.misses.Add(1)
		return core.CacheEntry{}, false, nil
	}
	m.hits.Add(1)
	return entry, true, nil
}

// Put stores entry, replacing any previous value for its key. Entries that
// could never be served are not stored.
func (m *Memory) Put(_ context.Context, entry core.CacheEntry) error {
	if entry.Key == "" || entry.TTL <= 0 {
		return nil
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = m.now()
	}

	s := m.shardFor(entry.Key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items.Add(entry.Key, entry) {
		m.evictions.Add(1)
	}
	return nil
}

// Sweep removes every entry that is no longer fresh at now.
func (m *Memory) Sweep(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	for _, s := range m.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		s.mu.Lock()
		for _, key := range s.items.Keys() {
			entry, ok := s.items.Peek(key)
			if ok && !entry.Fresh(now) {
				s.items.Remove(key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	m.expirations.Add(removed)
	return removed, nil
}

// Len returns the number of stored entries, fresh or not.
func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += s.items.Len()
		s.mu.Unlock()
	}
	return n
}

// Stats returns the store's counters.
func (m *Memory) Stats() core.CacheStats {
	return core.CacheStats{
		Entries:     m.Len(),
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Evictions:   m.evictions.Load(),
		Expirations: m.expirations.Load(),
	}
}
