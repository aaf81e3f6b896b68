package identity

import "context"

type ctxKey string

const callerKey ctxKey = "medimeet.caller"

// WithCaller stores the caller identity in context.
func WithCaller(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, callerKey, id)
}

// CallerFromContext extracts the caller identity if present.
func CallerFromContext(ctx context.Context) (Identity, bool) {
	val := ctx.Value(callerKey)
	if val == nil {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok && id.UserID != ""
}
