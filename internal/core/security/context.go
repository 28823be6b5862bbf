// Package security provides authorization primitives and user propagation.
package security

import "context"

type userIDKey struct{}

// WithUserID adds the authenticated user id to the context. Set by middleware,
// read wherever entities stamp CreatedBy/UpdatedBy and by the audit trail.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID retrieves the user id from context, or "".
func GetUserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey{}).(string); ok {
		return uid
	}
	return ""
}
