package pkg

import "context"

type sessionKey struct{}

// ContextWithSession returns a copy of ctx tagged with a session id.
// Transports and tracers use the tag to attribute transactions.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session id tagged on ctx, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
