package middleware

import (
	"context"

	"github.com/Permanently/sessionbook/internal/domain"
)

type contextKey string

const ContextKeyOwner contextKey = "owner_scope"

// OwnerFromContext returns the authenticated owner scope placed by Auth.
func OwnerFromContext(ctx context.Context) (domain.OwnerScope, bool) {
	v, ok := ctx.Value(ContextKeyOwner).(domain.OwnerScope)
	return v, ok
}

// WithOwner stamps an owner scope onto a context. Exposed for tests.
func WithOwner(ctx context.Context, owner domain.OwnerScope) context.Context {
	return context.WithValue(ctx, ContextKeyOwner, owner)
}
