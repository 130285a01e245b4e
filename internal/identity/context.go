package identity

import "context"

type identityContextKey struct{}

// ContextWith stores the resolved identity in context. The route
// guard is the only writer; handlers read the same snapshot so both
// authorization layers agree for the whole request.
func ContextWith(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts the resolved identity, or nil when the request
// is unauthenticated.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
