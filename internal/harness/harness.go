package harness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/gql"
	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/promise"
	"github.com/roach88/storefront/internal/sandbox"
	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/testutil"
)

// fixedNow keeps token iat and order timestamps byte-stable across runs.
var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	// TokenSecret signs tokens minted from AUTH_LOGIN claims.
	TokenSecret = "storefront-harness"

	sandboxEndpoint = "http://sandbox.invalid/graphql"
)

// effectFunc builds a shop effect from step args and names the promise
// record that reports its outcome.
type effectFunc func(a *shop.Actions, args ir.Object) (engine.Effect, string)

var effects = map[string]effectFunc{
	"register": func(a *shop.Actions, args ir.Object) (engine.Effect, string) {
		return a.FullRegister(args.GetString("login"), args.GetString("password")), shop.OpRegister
	},
	"login": func(a *shop.Actions, args ir.Object) (engine.Effect, string) {
		return a.FullLogin(args.GetString("login"), args.GetString("password")), shop.OpLogin
	},
	"root_categories": func(a *shop.Actions, _ ir.Object) (engine.Effect, string) {
		return a.RootCategories(), shop.OpRootCategories
	},
	"category": func(a *shop.Actions, args ir.Object) (engine.Effect, string) {
		return a.CategoryByID(args.GetString("id")), shop.OpCategoryByID
	},
	"good": func(a *shop.Actions, args ir.Object) (engine.Effect, string) {
		return a.GoodByID(args.GetString("id")), shop.OpGoodByID
	},
	"orders": func(a *shop.Actions, _ ir.Object) (engine.Effect, string) {
		return a.Orders(), shop.OpOrders
	},
	"checkout": func(a *shop.Actions, _ ir.Object) (engine.Effect, string) {
		return a.Checkout(), shop.OpAddOrder
	},
}

// Harness is the test execution engine.
// It owns one store, one credential store, and one sandbox backend.
type Harness struct {
	store   *engine.Store
	kv      *store.Memory
	actions *shop.Actions
	rec     *testutil.Recorder
	seen    int
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh store and sandbox for isolation.
//
// Execution flow:
//  1. Seed the credential store and build the store (auth restores here)
//  2. Dispatch flow steps, checking step expectations
//  3. Snapshot state, storage, and notifications
//  4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(scenario.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to set up harness: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute flow[%d]: %w", i, err)
		}
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to snapshot state: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func newHarness(storage map[string]string) (*Harness, error) {
	seed, err := sandbox.DefaultSeed()
	if err != nil {
		return nil, err
	}
	backend, err := sandbox.NewBackend(seed, sandbox.Config{
		IDs:        testutil.NewSequentialIDs("id"),
		Now:        func() time.Time { return fixedNow },
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		return nil, err
	}
	server := sandbox.NewServer(backend, nil, prometheus.NewRegistry())

	kv := store.NewMemory(storage)
	client, err := gql.NewClient(sandboxEndpoint,
		gql.WithHTTPClient(&http.Client{Transport: handlerTransport{handler: server.Routes()}}),
		gql.WithTokenSource(gql.FromStorage(kv, auth.TokenKey)),
	)
	if err != nil {
		return nil, err
	}

	rec := testutil.NewRecorder()
	st := shop.NewStore(kv, engine.WithMiddleware(rec.Middleware))
	st.Subscribe(rec.Notify)

	return &Harness{
		store:   st,
		kv:      kv,
		actions: shop.NewActions(shop.NewAPI(client)),
		rec:     rec,
	}, nil
}

// executeStep dispatches one step, traces the commands it produced, and
// checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step FlowStep, result *Result) error {
	args, err := ir.ObjectFromAny(step.Args)
	if err != nil {
		return fmt.Errorf("args: %w", err)
	}

	if step.Dispatch != "" {
		cmd, err := h.decode(step.Dispatch, args)
		if err != nil {
			return err
		}
		h.store.Dispatch(ctx, cmd)
		records, err := h.trace(result)
		if err != nil {
			return err
		}
		if step.Expect != nil && step.Expect.Changed != nil {
			changed := len(records) > 0 && records[0].Changed
			if changed != *step.Expect.Changed {
				result.AddError(fmt.Sprintf("flow[%d]: %s changed = %v, want %v",
					index, step.Dispatch, changed, *step.Expect.Changed))
			}
		}
		return nil
	}

	build := effects[step.Effect]
	if build == nil {
		return fmt.Errorf("unknown effect %q", step.Effect)
	}
	eff, name := build(h.actions, args)
	h.store.Dispatch(ctx, eff)
	if _, err := h.trace(result); err != nil {
		return err
	}

	if step.Expect == nil {
		return nil
	}
	rec, ok := promise.Lookup(h.store.GetState(), name)
	if step.Expect.Status != "" && (!ok || string(rec.Status) != step.Expect.Status) {
		result.AddError(fmt.Sprintf("flow[%d]: %s status = %q, want %q",
			index, name, rec.Status, step.Expect.Status))
	}
	if step.Expect.Error != "" {
		got := ""
		if rec.Err != nil {
			got = rec.Err.Error()
		}
		if got != step.Expect.Error {
			result.AddError(fmt.Sprintf("flow[%d]: %s error = %q, want %q",
				index, name, got, step.Expect.Error))
		}
	}
	return nil
}

// decode builds a command. AUTH_LOGIN with claims and no token is signed
// with TokenSecret first.
func (h *Harness) decode(typ string, args ir.Object) (engine.Command, error) {
	if claims := args.GetObject("claims"); typ == auth.TypeLogin && claims != nil && args.GetString("token") == "" {
		token, err := MintToken(claims)
		if err != nil {
			return nil, err
		}
		args = ir.NewObject(ir.O("token", ir.String(token)))
	}
	return shop.DecodeCommand(typ, args)
}

// trace appends the commands recorded since the previous call.
func (h *Harness) trace(result *Result) ([]testutil.Recorded, error) {
	records := h.rec.Records()[h.seen:]
	h.seen += len(records)
	for _, r := range records {
		typ, fields, err := shop.EncodeCommand(r.Command)
		if err != nil {
			return nil, err
		}
		result.AddTrace(typ, fields, r.Changed)
	}
	return records, nil
}

func (h *Harness) collect(ctx context.Context, result *Result) error {
	st := h.store.GetState()
	result.State = ir.NewObject(
		ir.O(auth.SliceName, auth.From(st).Snapshot()),
		ir.O(cart.SliceName, cart.From(st).Snapshot()),
		ir.O(promise.SliceName, engine.Select[promise.State](st, promise.SliceName).Snapshot()),
	)

	keys, err := h.kv.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		v, err := h.kv.Get(ctx, k)
		if err != nil {
			return err
		}
		result.Storage[k] = v
	}
	result.Notified = h.rec.Notified()
	return nil
}

// MintToken signs claims as an HS256 token with TokenSecret. Map claims
// serialize with sorted keys, so equal claims give equal tokens.
func MintToken(claims ir.Object) (string, error) {
	raw, _ := ir.ToAny(claims).(map[string]any)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(raw))
	signed, err := token.SignedString([]byte(TokenSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// handlerTransport serves requests in-process instead of over a socket.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}
