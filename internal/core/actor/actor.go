// Package actor carries the acting user through request context.
// The ledger records who posted each document; authentication itself
// happens upstream, here we only propagate the resolved identity.
package actor

import (
	"context"
)

// System is the actor recorded for scheduled jobs and for requests
// that carry no identity.
const System = "sistema"

// Actor identifies who is performing the request.
type Actor struct {
	Name  string
	Email string
}

type actorKey struct{}

// WithActor adds the actor to context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// Get returns the actor from context, or the zero Actor.
func Get(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}

// Name returns the actor name from context, falling back to System.
func Name(ctx context.Context) string {
	if a := Get(ctx); a.Name != "" {
		return a.Name
	}
	return System
}
