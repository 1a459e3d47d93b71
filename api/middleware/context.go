package middleware

import (
	"context"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, p policy.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFromContext returns the caller seeded by Auth.
func PrincipalFromContext(ctx context.Context) (policy.Principal, bool) {
	if ctx == nil {
		return policy.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(policy.Principal)
	return p, ok
}

// SubjectIDFromContext returns the caller id as a string, or "".
func SubjectIDFromContext(ctx context.Context) string {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	return p.ID.String()
}

// StoreIDFromContext returns the admin's bound store, or "".
func StoreIDFromContext(ctx context.Context) string {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.StoreID == nil {
		return ""
	}
	return p.StoreID.String()
}
