// Package auth owns the "auth" slice: the claims of the logged-in user,
// decoded from a token kept in durable storage.
//
// The slice is empty when no valid token is stored. Login persists the raw
// token; Logout clears it. Storage failures are logged and otherwise
// ignored, so the slice always reflects the last command even when the
// token could not be saved.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/store"
)

// SliceName is the store key of the auth slice.
const SliceName = "auth"

// TokenKey is the storage key holding the raw token.
const TokenKey = "authToken"

// Wire tags of the auth commands.
const (
	TypeLogin  = "AUTH_LOGIN"
	TypeLogout = "AUTH_LOGOUT"
)

// Storage is the durable credential store the reducer reads and writes.
// store.Store and store.Memory implement it; Get reports a missing key with
// store.ErrNotFound.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Login replaces the session with the one carried by Token.
type Login struct {
	Token string
}

// Logout ends the session.
type Logout struct{}

func (Login) Type() string  { return TypeLogin }
func (Logout) Type() string { return TypeLogout }

// LoginWith builds a Login command.
func LoginWith(token string) Login {
	return Login{Token: token}
}

// LogoutNow builds a Logout command.
func LogoutNow() Logout {
	return Logout{}
}

// Reducer owns the auth slice. Storage must not be nil.
//
// Reducers run without a caller context, so storage calls use
// context.Background.
type Reducer struct {
	Storage Storage
}

var _ engine.SliceReducer[Claims] = Reducer{}

// Init restores the session from storage: a stored non-empty token is an
// implicit Login, a missing or empty one an implicit Logout. A failed read
// starts logged out and leaves the stored token in place.
func (r Reducer) Init() Claims {
	token, err := r.Storage.Get(context.Background(), TokenKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("reading stored token", "error", err)
		return Claims{}
	}
	if token != "" {
		claims, _ := r.Reduce(Claims{}, Login{Token: token})
		return claims
	}
	claims, _ := r.Reduce(Claims{}, Logout{})
	return claims
}

// Reduce handles Login and Logout.
//
// Login always reports a change, even when the token cannot be decoded.
// Logout reports a change only when a session was active.
func (r Reducer) Reduce(state Claims, cmd engine.Command) (Claims, bool) {
	ctx := context.Background()

	switch c := cmd.(type) {
	case Login:
		claims, err := Decode(c.Token)
		if err != nil {
			slog.Debug("token rejected", "error", err)
			claims = Claims{}
		}
		if err := r.Storage.Set(ctx, TokenKey, c.Token); err != nil {
			slog.Error("persisting token", "error", err)
		}
		return claims, true

	case Logout:
		if err := r.Storage.Delete(ctx, TokenKey); err != nil {
			slog.Error("clearing token", "error", err)
		}
		if len(state) == 0 {
			return state, false
		}
		return Claims{}, true
	}
	return state, false
}

// Slice binds r to SliceName.
func Slice(storage Storage) engine.SliceSpec {
	return engine.Slice[Claims](SliceName, Reducer{Storage: storage})
}

// From reads the auth slice from the composite state.
func From(st engine.State) Claims {
	return engine.Select[Claims](st, SliceName)
}

// Snapshot renders the claims for golden files.
func (c Claims) Snapshot() ir.Value {
	if c == nil {
		return ir.Object{}
	}
	return ir.Object(c)
}
