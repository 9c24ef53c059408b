package core

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxAgeHeader carries a private caller's requested freshness in seconds.
const MaxAgeHeader = "X-Request-Maxage"

// DefaultPublicTTL caps freshness for public-tier callers.
const DefaultPublicTTL = 60 * time.Second

// CachePolicy derives cache keys and freshness from a request.
type CachePolicy struct {
	PublicTTL         time.Duration // fixed TTL for public callers
	PrivateDefaultTTL time.Duration // TTL for private callers that send no max-age
}

// DefaultCachePolicy returns the policy used when nothing is configured.
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{PublicTTL: DefaultPublicTTL}
}

// CachePlan is the key and freshness chosen for one request.
type CachePlan struct {
	Key string
	TTL time.Duration
}

// Seconds returns the TTL in whole seconds.
func (p CachePlan) Seconds() int {
	return int(p.TTL / time.Second)
}

// Cacheable reports whether a response under this plan is worth storing.
func (p CachePlan) Cacheable() bool {
	return p.Key != "" && p.Seconds() > 0
}

// CacheControl returns the Cache-Control header value for the plan.
func (p CachePlan) CacheControl() string {
	return "s-maxage=" + strconv.Itoa(p.Seconds())
}

// Plan picks the cache key and TTL for a request to u made by a caller of
// the given tier. maxAge is the raw X-Request-Maxage header value and is
// ignored for public callers.
func (cp CachePolicy) Plan(u *url.URL, tier TrustTier, maxAge string) CachePlan {
	plan := CachePlan{Key: CacheKey(u, tier)}

	if tier == TierPublic {
		plan.TTL = cp.PublicTTL
		return plan
	}

	if secs, ok := ParseMaxAge(maxAge); ok {
		plan.TTL = time.Duration(secs) * time.Second
	} else {
		plan.TTL = cp.PrivateDefaultTTL
	}
	return plan
}

// CacheKey canonicalizes a request URL into a cache key: the tier, the path
// and the query with parameters sorted by name. Host and fragment are left
// out so aliases of the service share entries.
func CacheKey(u *url.URL, tier TrustTier) string {
	var b strings.Builder
	b.WriteString(tier.String())
	b.WriteByte(':')
	b.WriteString(u.EscapedPath())
	if q := u.Query(); len(q) > 0 {
		b.WriteByte('?')
		b.WriteString(q.Encode())
	}
	return b.String()
}

// ParseMaxAge parses a non-negative number of seconds.
func ParseMaxAge(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}
