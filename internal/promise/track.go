package promise

import (
	"context"
	"log/slog"

	"github.com/roach88/storefront/internal/engine"
)

// Track returns an effect that records op's lifecycle under name.
//
// The effect dispatches PENDING, runs op, then dispatches FULFILLED with the
// value or REJECTED with the error. It resolves to the value on success and
// to nil on failure; the error is never returned to the caller, who reads it
// from the promise slice instead.
func Track[T any](name string, op func(ctx context.Context) (T, error)) engine.Effect {
	return engine.EffectFunc(func(ctx context.Context, dispatch engine.DispatchFunc, _ engine.GetStateFunc) any {
		dispatch(ctx, Pending(name))

		payload, err := op(ctx)
		if err != nil {
			slog.WarnContext(ctx, "operation rejected", "name", name, "error", err)
			dispatch(ctx, Rejected(name, err))
			return nil
		}

		slog.DebugContext(ctx, "operation fulfilled", "name", name)
		dispatch(ctx, Fulfilled(name, payload))
		return payload
	})
}

// Result converts an effect result back to its static type. ok is false
// when the effect resolved to nil (a rejected operation) or to another type.
func Result[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}
