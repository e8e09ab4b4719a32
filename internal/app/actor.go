package app

import (
	"context"
	"strings"

	"github.com/hylla/hoshu/internal/domain"
)

// MutationActor attributes grid edits and pastes in the change log.
type MutationActor struct {
	ActorID   string
	ActorType domain.ActorType
}

// localUser is the actor for edits made without caller identity.
var localUser = MutationActor{ActorID: domain.DefaultActorID, ActorType: domain.ActorTypeUser}

type actorKey struct{}

// WithMutationActor returns ctx carrying actor. Unknown actor types count as users.
func WithMutationActor(ctx context.Context, actor MutationActor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor.normalized())
}

// MutationActorFromContext returns the context actor. A blank id reports false.
func MutationActorFromContext(ctx context.Context) (MutationActor, bool) {
	actor, _ := ctx.Value(actorKey{}).(MutationActor)
	return actor, actor.ActorID != ""
}

// actorFor returns the context actor or the local user.
func actorFor(ctx context.Context) MutationActor {
	if actor, ok := MutationActorFromContext(ctx); ok {
		return actor
	}
	return localUser
}

func (a MutationActor) normalized() MutationActor {
	a.ActorID = strings.TrimSpace(a.ActorID)
	switch t := domain.ActorType(strings.ToLower(strings.TrimSpace(string(a.ActorType)))); t {
	case domain.ActorTypeAgent, domain.ActorTypeSystem:
		a.ActorType = t
	default:
		a.ActorType = domain.ActorTypeUser
	}
	return a
}
