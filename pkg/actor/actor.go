// Package actor identifies the employee performing an action. The gateway
// terminates authentication and forwards the employee id and role in
// headers; services only use the actor to attribute events and log lines.
package actor

import (
	"context"
	"fmt"
)

// SystemID attributes work started by the service itself, such as the
// scheduled expiry run.
const SystemID = "system"

// Actor is the employee behind a request.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// String returns a representation of the actor for logging
func (a *Actor) String() string {
	if a.IsSystem() {
		return SystemID
	}
	if a.Role == "" {
		return a.ID
	}
	return fmt.Sprintf("%s (%s)", a.ID, a.Role)
}

// IsSystem reports whether a stands for the service itself. A nil actor does.
func (a *Actor) IsSystem() bool {
	return a == nil || a.ID == "" || a.ID == SystemID
}

type contextKey struct{}

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(contextKey{}).(*Actor)
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, a)
}

// ID returns the id of the actor in ctx, or SystemID when there is none.
func ID(ctx context.Context) string {
	a := FromContext(ctx)
	if a.IsSystem() {
		return SystemID
	}
	return a.ID
}
