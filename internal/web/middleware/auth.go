package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetjson/internal/config"
	"github.com/JonMunkholm/sheetjson/internal/core"
	"github.com/JonMunkholm/sheetjson/internal/logging"
)

// TrustTier classifies each caller from its bearer token and stores the
// tier in the request context.
//
//   - no Authorization header: public
//   - token in PrivateKeys: private
//   - token in PublicKeys: public
//   - any other token: 401 before the request reaches a handler
//
// With no keys configured every caller is public and tokens are ignored.
func TrustTier(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier, ok := classify(r.Header.Get("Authorization"), cfg)
			if !ok {
				logging.FromContext(r.Context()).Warn("auth: unrecognised bearer token",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				_ = core.Failure(core.ErrUnauthorized).WriteTo(w)
				return
			}

			recordTier(r.Context(), tier)
			ctx := core.ContextWithTrustTier(r.Context(), tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func classify(header string, cfg *config.SecurityConfig) (core.TrustTier, bool) {
	if header == "" || (len(cfg.PublicKeys) == 0 && len(cfg.PrivateKeys) == 0) {
		return core.TierPublic, true
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return core.TierPublic, false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return core.TierPublic, false
	}

	// Check both lists so timing does not reveal which one matched.
	private := matchesAny(token, cfg.PrivateKeys)
	public := matchesAny(token, cfg.PublicKeys)
	switch {
	case private:
		return core.TierPrivate, true
	case public:
		return core.TierPublic, true
	default:
		return core.TierPublic, false
	}
}

// matchesAny compares key against every candidate in constant time.
func matchesAny(key string, candidates []string) bool {
	valid := 0
	for _, c := range candidates {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(c))
	}
	return valid == 1
}

type tierSinkKey struct{}

func withTierSink(ctx context.Context, tier *core.TrustTier) context.Context {
	return context.WithValue(ctx, tierSinkKey{}, tier)
}

// recordTier reports the classified tier to an enclosing Logger.
func recordTier(ctx context.Context, tier core.TrustTier) {
	if p, ok := ctx.Value(tierSinkKey{}).(*core.TrustTier); ok {
		*p = tier
	}
}
