package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/storefront/internal/catalog"
)

// ErrNotFound is returned when a lookup by id resolves to null.
var ErrNotFound = errors.New("shop: not found")

// Caller performs one GraphQL round trip and decodes the first root field
// of the result into out. gql.Client implements it.
type Caller interface {
	Call(ctx context.Context, query string, variables any, out any) error
}

// API exposes the backend operations with typed results.
type API struct {
	caller Caller
}

// NewAPI wraps caller.
func NewAPI(caller Caller) *API {
	return &API{caller: caller}
}

// byQuery renders the backend's query argument: a JSON array whose first
// element is a filter object.
func byQuery(filter map[string]any) string {
	data, err := json.Marshal([]map[string]any{filter})
	if err != nil {
		// filters are built from strings and nil only
		panic(fmt.Sprintf("shop: encode filter: %v", err))
	}
	return string(data)
}

// Register creates an account.
func (a *API) Register(ctx context.Context, login, password string) (catalog.User, error) {
	var user catalog.User
	err := a.caller.Call(ctx, registerDoc, map[string]any{"login": login, "password": password}, &user)
	return user, err
}

// Login exchanges credentials for a token. Wrong credentials yield an
// empty token, not an error.
func (a *API) Login(ctx context.Context, login, password string) (string, error) {
	var token *string
	if err := a.caller.Call(ctx, loginDoc, map[string]any{"login": login, "password": password}, &token); err != nil {
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

// RootCategories lists categories without a parent.
func (a *API) RootCategories(ctx context.Context) ([]catalog.Category, error) {
	var cats []catalog.Category
	err := a.caller.Call(ctx, rootCategoriesDoc, map[string]any{"q": byQuery(map[string]any{"parent": nil})}, &cats)
	return cats, err
}

// CategoryByID fetches a category with its goods and subcategories.
func (a *API) CategoryByID(ctx context.Context, id string) (catalog.Category, error) {
	var cat *catalog.Category
	if err := a.caller.Call(ctx, categoryByIDDoc, map[string]any{"q": byQuery(map[string]any{"_id": id})}, &cat); err != nil {
		return catalog.Category{}, err
	}
	if cat == nil {
		return catalog.Category{}, fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	return *cat, nil
}

// GoodByID fetches one good.
func (a *API) GoodByID(ctx context.Context, id string) (catalog.Good, error) {
	var good *catalog.Good
	if err := a.caller.Call(ctx, goodByIDDoc, map[string]any{"q": byQuery(map[string]any{"_id": id})}, &good); err != nil {
		return catalog.Good{}, err
	}
	if good == nil {
		return catalog.Good{}, fmt.Errorf("good %q: %w", id, ErrNotFound)
	}
	return *good, nil
}

// Orders lists the logged-in user's orders, oldest first.
func (a *API) Orders(ctx context.Context) ([]catalog.Order, error) {
	var orders []catalog.Order
	err := a.caller.Call(ctx, ordersDoc, map[string]any{"q": byQuery(map[string]any{})}, &orders)
	return orders, err
}

// AddOrder places an order for lines.
func (a *API) AddOrder(ctx context.Context, lines []catalog.OrderLine) (catalog.Order, error) {
	var order catalog.Order
	err := a.caller.Call(ctx, addOrderDoc, map[string]any{"cart": lines}, &order)
	return order, err
}
