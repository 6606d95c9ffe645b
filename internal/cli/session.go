package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/storefront/internal/auth"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/gql"
	"github.com/roach88/storefront/internal/metrics"
	"github.com/roach88/storefront/internal/promise"
	"github.com/roach88/storefront/internal/shop"
	"github.com/roach88/storefront/internal/store"
)

// session is one command's view of the client: the persisted token store,
// the storefront store over it, and the actions bound to the endpoint.
type session struct {
	opts    *RootOptions
	kv      *store.Store
	store   *engine.Store
	actions *shop.Actions
	reg     *prometheus.Registry
}

func openSession(opts *RootOptions) (*session, error) {
	kv, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open session database", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client, err := gql.NewClient(opts.Endpoint,
		gql.WithHTTPClient(&http.Client{
			Timeout:   opts.Timeout,
			Transport: m.Transport(http.DefaultTransport),
		}),
		gql.WithTokenSource(gql.FromStorage(kv, auth.TokenKey)),
	)
	if err != nil {
		kv.Close()
		return nil, WrapExitError(ExitCommandError, "invalid endpoint", err)
	}

	st := shop.NewStore(kv, engine.WithMiddleware(engine.Logging, m.Middleware))
	st.Subscribe(func() {
		slog.Debug("state changed", "version", st.Version())
	})

	return &session{
		opts:    opts,
		kv:      kv,
		store:   st,
		actions: shop.NewActions(shop.NewAPI(client)),
		reg:     reg,
	}, nil
}

// Close logs the collected metrics and releases the database.
func (s *session) Close() error {
	if families, err := s.reg.Gather(); err == nil {
		for _, mf := range families {
			for _, metric := range mf.GetMetric() {
				slog.Debug("metric", "name", mf.GetName(), "labels", metric.GetLabel(),
					"counter", metric.GetCounter().GetValue(),
					"samples", metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return s.kv.Close()
}

// run dispatches effect under the command timeout and maps a rejected
// operation named op to an ExitFailure error.
func (s *session) run(ctx context.Context, op string, effect engine.Effect) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	result := s.store.Dispatch(ctx, effect)
	if err := s.rejected(op); err != nil {
		return nil, err
	}
	return result, nil
}

// rejected returns an ExitFailure error when the record of op is REJECTED.
func (s *session) rejected(op string) error {
	if rec, ok := promise.Lookup(s.store.GetState(), op); ok && rec.Status == promise.StatusRejected {
		return WrapExitError(ExitFailure, fmt.Sprintf("%s rejected", op), rec.Err)
	}
	return nil
}

func (s *session) claims() auth.Claims {
	return auth.From(s.store.GetState())
}

func (s *session) cart() cart.State {
	return cart.From(s.store.GetState())
}
