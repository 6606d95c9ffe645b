package engine

import "context"

// Action is anything Dispatch accepts: a Command or an Effect.
// Any other value is a programming error and makes Dispatch panic.
type Action any

// Command is a plain state-change record. Type is the wire tag reducers
// switch on (e.g. "CART_ADD"); the remaining fields are the payload.
type Command interface {
	Type() string
}

// InitCommand is folded once when a Store is constructed. Its type is empty,
// so every reducer treats it as unknown and returns its default state.
var InitCommand Command = initCommand{}

type initCommand struct{}

func (initCommand) Type() string { return "" }

// DispatchFunc is the dispatch capability handed to effects.
type DispatchFunc func(ctx context.Context, action Action) any

// GetStateFunc is the read capability handed to effects.
type GetStateFunc func() State

// Effect is an effectful operation interpreted by the store instead of the
// reducer. Run executes synchronously inside Dispatch; whatever it returns
// is returned from Dispatch. Effects may dispatch recursively, including
// other effects.
type Effect interface {
	Run(ctx context.Context, dispatch DispatchFunc, getState GetStateFunc) any
}

// EffectFunc adapts an ordinary function to the Effect interface.
type EffectFunc func(ctx context.Context, dispatch DispatchFunc, getState GetStateFunc) any

// Run calls f(ctx, dispatch, getState).
func (f EffectFunc) Run(ctx context.Context, dispatch DispatchFunc, getState GetStateFunc) any {
	return f(ctx, dispatch, getState)
}
