// Package shop turns backend operations into store actions.
//
// Every remote operation runs through promise.Track under a fixed name, so
// its progress and outcome are visible in the "promise" slice. The flows
// FullLogin, FullRegister, and Checkout chain several of them and update
// the auth and cart slices on success.
package shop

import (
	"context"
	"errors"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/promise"
)

// Promise names of the tracked operations.
const (
	OpRegister       = "fullRegister"
	OpLogin          = "fullLogin"
	OpRootCategories = "rootCats"
	OpCategoryByID   = "catById"
	OpGoodByID       = "goodById"
	OpOrders         = "orderFind"
	OpAddOrder       = "actionAddOrder"
)

var (
	// ErrEmptyCredentials rejects a registration without login or password.
	ErrEmptyCredentials = errors.New("shop: login and password are required")
	// ErrNotLoggedIn rejects a checkout without a session.
	ErrNotLoggedIn = errors.New("shop: not logged in")
	// ErrEmptyCart rejects a checkout with nothing to order.
	ErrEmptyCart = errors.New("shop: cart is empty")
)

// Actions builds effects against one backend.
type Actions struct {
	api *API
}

// NewActions creates Actions for api.
func NewActions(api *API) *Actions {
	return &Actions{api: api}
}

// Register creates an account. Resolves to catalog.User.
func (a *Actions) Register(login, password string) engine.Effect {
	return promise.Track(OpRegister, func(ctx context.Context) (catalog.User, error) {
		return a.api.Register(ctx, login, password)
	})
}

// Login fetches a token. Resolves to the token string, empty for wrong
// credentials.
func (a *Actions) Login(login, password string) engine.Effect {
	return promise.Track(OpLogin, func(ctx context.Context) (string, error) {
		return a.api.Login(ctx, login, password)
	})
}

// RootCategories resolves to []catalog.Category.
func (a *Actions) RootCategories() engine.Effect {
	return promise.Track(OpRootCategories, a.api.RootCategories)
}

// CategoryByID resolves to catalog.Category.
func (a *Actions) CategoryByID(id string) engine.Effect {
	return promise.Track(OpCategoryByID, func(ctx context.Context) (catalog.Category, error) {
		return a.api.CategoryByID(ctx, id)
	})
}

// GoodByID resolves to catalog.Good.
func (a *Actions) GoodByID(id string) engine.Effect {
	return promise.Track(OpGoodByID, func(ctx context.Context) (catalog.Good, error) {
		return a.api.GoodByID(ctx, id)
	})
}

// Orders resolves to []catalog.Order.
func (a *Actions) Orders() engine.Effect {
	return promise.Track(OpOrders, a.api.Orders)
}

// AddOrder resolves to the placed catalog.Order.
func (a *Actions) AddOrder(lines []catalog.OrderLine) engine.Effect {
	return promise.Track(OpAddOrder, func(ctx context.Context) (catalog.Order, error) {
		return a.api.AddOrder(ctx, lines)
	})
}

// FullLogin logs in and updates the session: a token means auth.Login,
// no token means auth.Logout. Resolves to the token, or nil.
func (a *Actions) FullLogin(login, password string) engine.Effect {
	return engine.EffectFunc(func(ctx context.Context, dispatch engine.DispatchFunc, _ engine.GetStateFunc) any {
		token, _ := promise.Result[string](dispatch(ctx, a.Login(login, password)))
		if token == "" {
			dispatch(ctx, auth.LogoutNow())
			return nil
		}
		dispatch(ctx, auth.LoginWith(token))
		return token
	})
}

// FullRegister creates an account and logs into it. Resolves to the token,
// or nil when either step fails.
func (a *Actions) FullRegister(login, password string) engine.Effect {
	return engine.EffectFunc(func(ctx context.Context, dispatch engine.DispatchFunc, _ engine.GetStateFunc) any {
		if login == "" || password == "" {
			dispatch(ctx, promise.Rejected(OpRegister, ErrEmptyCredentials))
			return nil
		}
		if _, ok := promise.Result[catalog.User](dispatch(ctx, a.Register(login, password))); !ok {
			return nil
		}
		return dispatch(ctx, a.FullLogin(login, password))
	})
}

// Checkout orders the cart contents and clears the cart once the order is
// placed. Resolves to catalog.Order, or nil.
func (a *Actions) Checkout() engine.Effect {
	return engine.EffectFunc(func(ctx context.Context, dispatch engine.DispatchFunc, getState engine.GetStateFunc) any {
		st := getState()
		if !auth.From(st).LoggedIn() {
			dispatch(ctx, promise.Rejected(OpAddOrder, ErrNotLoggedIn))
			return nil
		}
		items := cart.From(st)
		if len(items) == 0 {
			dispatch(ctx, promise.Rejected(OpAddOrder, ErrEmptyCart))
			return nil
		}

		order, ok := promise.Result[catalog.Order](dispatch(ctx, a.AddOrder(cart.OrderLines(items))))
		if !ok {
			return nil
		}
		dispatch(ctx, cart.Empty())
		return order
	})
}
