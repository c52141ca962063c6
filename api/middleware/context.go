package middleware

import (
	"context"

	"github.com/angelmondragon/rpg-market/internal/authz"
	"github.com/angelmondragon/rpg-market/pkg/visibility"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxActor    contextKey = "actor"
	ctxAccessID contextKey = "access_id"
)

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the caller; ok is false for anonymous requests.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	if ctx == nil {
		return authz.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(authz.Actor)
	return actor, ok && actor.UserID != uuid.Nil
}

// ViewerFromContext projects the caller onto the browse rules. Anonymous
// requests get the zero viewer.
func ViewerFromContext(ctx context.Context) visibility.Viewer {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return visibility.Viewer{}
	}
	return visibility.Viewer{
		UserID:         actor.UserID,
		Role:           actor.Role,
		CharacterClass: actor.CharacterClass,
	}
}

func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

// AccessIDFromContext returns the session id (jti) of the presented token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
