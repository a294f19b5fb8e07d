package exchange

import "context"

type contextKey struct{}

// NewContext returns a context carrying st. Stages that receive the context
// observe the same State instance.
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext returns the State carried by ctx, if any.
func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(contextKey{}).(*State)
	return st, ok
}

// Ensure returns the State carried by ctx, creating and attaching a fresh one
// when none exists yet. The returned context always carries the returned
// State.
func Ensure(ctx context.Context) (context.Context, *State) {
	if st, ok := FromContext(ctx); ok {
		return ctx, st
	}
	st := NewState()
	return NewContext(ctx, st), st
}
