package core

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCachePolicy_PublicIgnoresMaxAge(t *testing.T) {
	policy := CachePolicy{PublicTTL: DefaultPublicTTL, PrivateDefaultTTL: 5 * time.Minute}
	u := mustURL(t, "https://api.example.com/?docId=abc")

	for _, maxAge := range []string{"", "0", "3600", "junk", "-5"} {
		plan := policy.Plan(u, TierPublic, maxAge)
		assert.Equal(t, "s-maxage=60", plan.CacheControl(), "maxAge=%q", maxAge)
		assert.True(t, plan.Cacheable())
	}
}

func TestCachePolicy_PrivateUsesMaxAge(t *testing.T) {
	policy := CachePolicy{PublicTTL: DefaultPublicTTL, PrivateDefaultTTL: 30 * time.Second}
	u := mustURL(t, "/?docId=abc")

	tests := []struct {
		maxAge        string
		wantTTL       time.Duration
		wantCacheable bool
	}{
		{"3600", time.Hour, true},
		{" 15 ", 15 * time.Second, true},
		{"0", 0, false},
		{"", 30 * time.Second, true},
		{"abc", 30 * time.Second, true},
		{"-1", 30 * time.Second, true},
	}

	for _, tt := range tests {
		plan := policy.Plan(u, TierPrivate, tt.maxAge)
		assert.Equal(t, tt.wantTTL, plan.TTL, "maxAge=%q", tt.maxAge)
		assert.Equal(t, tt.wantCacheable, plan.Cacheable(), "maxAge=%q", tt.maxAge)
	}
}

func TestCachePolicy_PrivateDefaultUnset(t *testing.T) {
	plan := DefaultCachePolicy().Plan(mustURL(t, "/?docId=abc"), TierPrivate, "")

	assert.Equal(t, "s-maxage=0", plan.CacheControl())
	assert.False(t, plan.Cacheable())
}

func TestCacheKey_Canonical(t *testing.T) {
	a := CacheKey(mustURL(t, "https://one.example.com/?sheet=Q3+Sales&docId=abc&rowLimit=5"), TierPublic)
	b := CacheKey(mustURL(t, "http://two.example.com/?docId=abc&rowLimit=5&sheet=Q3%20Sales"), TierPublic)

	assert.Equal(t, a, b)
	assert.Equal(t, "public:/?docId=abc&rowLimit=5&sheet=Q3+Sales", a)
}

func TestCacheKey_TierAndParamsSeparate(t *testing.T) {
	u := mustURL(t, "/doc/0")
	assert.Equal(t, "public:/doc/0", CacheKey(u, TierPublic))
	assert.Equal(t, "private:/doc/0", CacheKey(u, TierPrivate))

	assert.NotEqual(t,
		CacheKey(mustURL(t, "/?docId=abc&rowLimit=1"), TierPublic),
		CacheKey(mustURL(t, "/?docId=abc&rowLimit=2"), TierPublic),
	)
}
