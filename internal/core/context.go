package core

import "context"

type contextKey string

const ctxKeyTrustTier contextKey = "trust_tier"

// ContextWithTrustTier records the caller's classified tier.
func ContextWithTrustTier(ctx context.Context, tier TrustTier) context.Context {
	return context.WithValue(ctx, ctxKeyTrustTier, tier)
}

// TrustTierFromContext returns the caller's tier, TierPublic if unset.
func TrustTierFromContext(ctx context.Context) TrustTier {
	if v, ok := ctx.Value(ctxKeyTrustTier).(TrustTier); ok {
		return v
	}
	return TierPublic
}
