package shop

import (
	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/promise"
)

// Reducer is the storefront root reducer: promise, auth, and cart slices,
// evaluated in that order.
func Reducer(storage auth.Storage) engine.Reducer {
	return engine.Combine(
		promise.Slice(),
		auth.Slice(storage),
		cart.Slice(),
	)
}

// NewStore builds a store over Reducer(storage).
func NewStore(storage auth.Storage, opts ...engine.Option) *engine.Store {
	return engine.New(Reducer(storage), opts...)
}
