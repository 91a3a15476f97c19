package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the authenticated actor id in context. The
// upstream gateway has already authenticated the caller; this id is
// taken from the forwarded identity header.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the actor id from context.
func ActorFromContext(ctx context.Context) string {
	actorID, _ := ctx.Value(actorContextKey{}).(string)
	return actorID
}
