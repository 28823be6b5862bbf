package tenant

import (
	"context"
)

type ctxKey int

const scopeKey ctxKey = iota

// WithScope stores the tenant scope in the context.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// ScopeFrom retrieves the scope from the context. Every read/write path must
// check the error: an operation without a scope is rejected, never defaulted.
func ScopeFrom(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeKey).(Scope)
	if !ok || !s.Valid() {
		return Scope{}, ErrNoScope
	}
	return s, nil
}

// MustScope retrieves the scope or panics. Use only where a missing scope is a
// programming error (request handlers behind the tenant middleware).
func MustScope(ctx context.Context) Scope {
	s, err := ScopeFrom(ctx)
	if err != nil {
		panic("tenant scope not in context: " + err.Error())
	}
	return s
}
