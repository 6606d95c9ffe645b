package shop

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/gql"
	"github.com/roach88/storefront/internal/promise"
	"github.com/roach88/storefront/internal/sandbox"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/testutil"
)

// fixture wires a store to a sandbox backend over HTTP.
type fixture struct {
	store   *engine.Store
	actions *Actions
	kv      *store.Memory
	rec     *testutil.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	seed, err := sandbox.DefaultSeed()
	require.NoError(t, err)
	backend, err := sandbox.NewBackend(seed, sandbox.Config{
		IDs:        testutil.NewSequentialIDs("id"),
		Now:        func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) },
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(sandbox.NewServer(backend, nil, prometheus.NewRegistry()).Routes())
	t.Cleanup(srv.Close)

	kv := store.NewMemory(nil)
	client, err := gql.NewClient(srv.URL+"/graphql", gql.WithTokenSource(gql.FromStorage(kv, auth.TokenKey)))
	require.NoError(t, err)

	rec := testutil.NewRecorder()
	s := NewStore(kv, engine.WithMiddleware(rec.Middleware))
	s.Subscribe(rec.Notify)

	return &fixture{store: s, actions: NewActions(NewAPI(client)), kv: kv, rec: rec}
}

func (f *fixture) dispatch(action engine.Action) any {
	return f.store.Dispatch(context.Background(), action)
}

func (f *fixture) record(name string) promise.Record {
	rec, _ := promise.Lookup(f.store.GetState(), name)
	return rec
}

func TestNewStore_Slices(t *testing.T) {
	s := NewStore(store.NewMemory(nil))
	assert.Equal(t, []string{auth.SliceName, cart.SliceName, promise.SliceName}, s.GetState().Names())
	assert.Equal(t, auth.Claims{}, auth.From(s.GetState()))
}

func TestRootCategories(t *testing.T) {
	f := newFixture(t)

	result := f.dispatch(f.actions.RootCategories())

	cats, ok := promise.Result[[]catalog.Category](result)
	require.True(t, ok)
	assert.Len(t, cats, 2)
	assert.Equal(t, promise.StatusFulfilled, f.record(OpRootCategories).Status)
	assert.Equal(t, []string{promise.CommandType, promise.CommandType}, f.rec.Types())
	assert.Equal(t, 2, f.rec.Notified())
}

func TestCategoryAndGoodByID(t *testing.T) {
	f := newFixture(t)

	cat, ok := promise.Result[catalog.Category](f.dispatch(f.actions.CategoryByID("cat-tea")))
	require.True(t, ok)
	assert.Equal(t, "Tea", cat.Name)

	good, ok := promise.Result[catalog.Good](f.dispatch(f.actions.GoodByID("good-espresso")))
	require.True(t, ok)
	assert.Equal(t, "Espresso Beans", good.Name)

	assert.Nil(t, f.dispatch(f.actions.GoodByID("nope")))
	rec := f.record(OpGoodByID)
	assert.Equal(t, promise.StatusRejected, rec.Status)
	assert.ErrorIs(t, rec.Err, ErrNotFound)
}

func TestFullLogin(t *testing.T) {
	f := newFixture(t)

	token := f.dispatch(f.actions.FullLogin("demo", "demo"))

	require.IsType(t, "", token)
	assert.Equal(t, "demo", auth.From(f.store.GetState()).Login())
	stored, err := f.kv.Get(context.Background(), auth.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	assert.Equal(t, []string{promise.CommandType, promise.CommandType, auth.TypeLogin}, f.rec.Types())
}

func TestFullLogin_WrongPasswordLogsOut(t *testing.T) {
	f := newFixture(t)
	f.dispatch(f.actions.FullLogin("demo", "demo"))

	assert.Nil(t, f.dispatch(f.actions.FullLogin("demo", "wrong")))

	assert.False(t, auth.From(f.store.GetState()).LoggedIn())
	assert.Equal(t, promise.StatusFulfilled, f.record(OpLogin).Status, "a wrong password is not a transport failure")
	_, err := f.kv.Get(context.Background(), auth.TokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFullRegister(t *testing.T) {
	f := newFixture(t)

	token := f.dispatch(f.actions.FullRegister("amy", "secret"))

	assert.NotNil(t, token)
	assert.Equal(t, "amy", auth.From(f.store.GetState()).Login())
	assert.Equal(t, promise.StatusFulfilled, f.record(OpRegister).Status)
	assert.Equal(t, promise.StatusFulfilled, f.record(OpLogin).Status)
}

func TestFullRegister_DuplicateLogin(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.dispatch(f.actions.FullRegister("demo", "x")))

	rec := f.record(OpRegister)
	assert.Equal(t, promise.StatusRejected, rec.Status)
	var gqlErr *gql.Error
	require.ErrorAs(t, rec.Err, &gqlErr)
	assert.Equal(t, []string{sandbox.ErrLoginTaken.Error()}, gqlErr.Messages())
	_, attempted := promise.Lookup(f.store.GetState(), OpLogin)
	assert.False(t, attempted, "login is not attempted after a failed registration")
}

func TestFullRegister_EmptyCredentials(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.dispatch(f.actions.FullRegister("", "")))
	assert.ErrorIs(t, f.record(OpRegister).Err, ErrEmptyCredentials)
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	sencha := catalog.Good{ID: "good-sencha", Name: "Sencha", Price: 120}
	halva := catalog.Good{ID: "good-halva", Name: "Halva", Price: 64.25}

	f.dispatch(cart.AddN(sencha, 2))
	f.dispatch(cart.AddOne(halva))

	t.Run("requires a session", func(t *testing.T) {
		assert.Nil(t, f.dispatch(f.actions.Checkout()))
		assert.ErrorIs(t, f.record(OpAddOrder).Err, ErrNotLoggedIn)
		assert.Len(t, cart.From(f.store.GetState()), 2)
	})

	t.Run("places the order and clears the cart", func(t *testing.T) {
		f.dispatch(f.actions.FullLogin("demo", "demo"))

		order, ok := promise.Result[catalog.Order](f.dispatch(f.actions.Checkout()))
		require.True(t, ok)
		assert.InDelta(t, 304.25, order.Total, 1e-9)
		assert.Empty(t, cart.From(f.store.GetState()))

		orders, ok := promise.Result[[]catalog.Order](f.dispatch(f.actions.Orders()))
		require.True(t, ok)
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})

	t.Run("rejects an empty cart", func(t *testing.T) {
		assert.Nil(t, f.dispatch(f.actions.Checkout()))
		assert.ErrorIs(t, f.record(OpAddOrder).Err, ErrEmptyCart)
	})
}

// stubCaller answers every call with a canned error.
type stubCaller struct {
	err   error
	calls int
}

func (s *stubCaller) Call(context.Context, string, any, any) error {
	s.calls++
	return s.err
}

func TestCheckout_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory(map[string]string{auth.TokenKey: testutil.LoginToken(t, "bob")})
	s := NewStore(kv)
	caller := &stubCaller{err: errors.New("backend down")}
	actions := NewActions(NewAPI(caller))

	s.Dispatch(ctx, cart.AddOne(catalog.Good{ID: "g"}))
	assert.Nil(t, s.Dispatch(ctx, actions.Checkout()))

	assert.Equal(t, 1, caller.calls)
	assert.Len(t, cart.From(s.GetState()), 1)
	rec, _ := promise.Lookup(s.GetState(), OpAddOrder)
	assert.EqualError(t, rec.Err, "backend down")
}

// recordingCaller captures the variables of the last call.
type recordingCaller struct {
	query string
	vars  map[string]any
}

func (r *recordingCaller) Call(_ context.Context, query string, variables any, _ any) error {
	r.query = query
	r.vars, _ = variables.(map[string]any)
	return nil
}

func TestAPI_QueryVariables(t *testing.T) {
	ctx := context.Background()
	rc := &recordingCaller{}
	api := NewAPI(rc)

	_, _ = api.RootCategories(ctx)
	assert.Equal(t, `[{"parent":null}]`, rc.vars["q"])

	_, _ = api.GoodByID(ctx, "g1")
	assert.Equal(t, `[{"_id":"g1"}]`, rc.vars["q"])
	assert.Contains(t, rc.query, "GoodFindOne")

	_, _ = api.Orders(ctx)
	assert.Equal(t, `[{}]`, rc.vars["q"])

	_, _ = api.Register(ctx, "a", "b")
	assert.Equal(t, map[string]any{"login": "a", "password": "b"}, rc.vars)
}
