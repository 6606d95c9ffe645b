package engine

import (
	"context"
	"log/slog"
)

// CommandFunc handles one command and reports whether the state changed.
type CommandFunc func(ctx context.Context, cmd Command) (changed bool)

// Middleware wraps command handling. Effects never reach middleware; only
// the commands they dispatch do.
type Middleware func(next CommandFunc) CommandFunc

// chain composes middlewares so that the first one is outermost.
func chain(mws []Middleware, final CommandFunc) CommandFunc {
	h := final
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Logging logs every command at debug level after it has been reduced.
func Logging(next CommandFunc) CommandFunc {
	return func(ctx context.Context, cmd Command) bool {
		changed := next(ctx, cmd)
		slog.DebugContext(ctx, "command reduced",
			"type", cmd.Type(),
			"changed", changed,
		)
		return changed
	}
}
