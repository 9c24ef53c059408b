package core

import (
	"context"
	"time"
)

// TrustTier classifies the caller for cache freshness policy.
type TrustTier int

const (
	TierPublic TrustTier = iota
	TierPrivate
)

// String returns the lowercase tier name used in cache keys and logs.
func (t TrustTier) String() string {
	if t == TierPrivate {
		return "private"
	}
	return "public"
}

// SheetRequest is one caller request after HTTP decoding.
// SheetToken is kept URL-encoded; the resolver decodes it.
type SheetRequest struct {
	DocumentID string
	SheetToken string
	SourceURL  string
	RowLimit   int
	RowOffset  int
	Tier       TrustTier
}

// Tab is one page of a document.
type Tab struct {
	Index    int    `json:"index"`
	StableID int64  `json:"sheetId"`
	Title    string `json:"title"`
}

// Metadata lists the tabs of a document in positional order.
type Metadata struct {
	Tabs []Tab
}

// TabAt returns the tab at position i of the list.
func (m Metadata) TabAt(i int) (Tab, bool) {
	if i < 0 || i >= len(m.Tabs) {
		return Tab{}, false
	}
	return m.Tabs[i], true
}

// TabByStableID returns the tab whose stable id equals id.
func (m Metadata) TabByStableID(id int64) (Tab, bool) {
	for _, t := range m.Tabs {
		if t.StableID == id {
			return t, true
		}
	}
	return Tab{}, false
}

// TabByTitle returns the first tab in positional order with the given title.
// Providers do not guarantee unique titles; first match is the documented rule.
func (m Metadata) TabByTitle(title string) (Tab, bool) {
	for _, t := range m.Tabs {
		if t.Title == title {
			return t, true
		}
	}
	return Tab{}, false
}

// ResolvedSheet is the canonical (document, title) pair a request refers to.
type ResolvedSheet struct {
	DocumentID string
	Title      string
}

// Value is a raw cell scalar as received from the provider: string or float64.
type Value = any

// RawTable is the first row of a sheet as headers plus the remaining rows.
// Rows may be shorter than Headers.
type RawTable struct {
	Headers []string
	Rows    [][]Value
}

// NewRawTable splits provider rows into header and body.
// A nil or empty input yields an empty table.
func NewRawTable(values [][]Value) RawTable {
	if len(values) == 0 {
		return RawTable{}
	}
	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = cellString(v)
	}
	return RawTable{Headers: headers, Rows: values[1:]}
}

// MetadataFunc looks up the tab list of a document.
type MetadataFunc func(ctx context.Context, documentID string) (Metadata, error)

// Provider is the Spreadsheet Data Provider consumed by the pipeline.
type Provider interface {
	Metadata(ctx context.Context, documentID string) (Metadata, error)
	Values(ctx context.Context, sheet ResolvedSheet) (RawTable, error)
}

// CacheEntry is one stored response payload.
type CacheEntry struct {
	Key      string
	Payload  []byte
	TTL      time.Duration
	StoredAt time.Time
}

// ExpiresAt returns when the entry stops being fresh.
func (e CacheEntry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}

// Fresh reports whether the entry may still be served at now.
func (e CacheEntry) Fresh(now time.Time) bool {
	return e.TTL > 0 && now.Before(e.ExpiresAt())
}

// CacheStore is the get/put contract of the edge key-value cache.
type CacheStore interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// CacheStats is a point-in-time view of cache counters.
type CacheStats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
}
