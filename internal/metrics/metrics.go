// Package metrics instruments the client's store and RPC transport with
// Prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/promise"
)

// Metrics provides observability for a store and its remote calls.
type Metrics struct {
	Commands    *prometheus.CounterVec
	Operations  *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// New creates Metrics registered with reg. Pass prometheus.NewRegistry()
// in tests to keep collectors isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_commands_total",
			Help: "Commands reduced by the store, by type and whether state changed",
		}, []string{"type", "changed"}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_operations_total",
			Help: "Lifecycle events of tracked remote operations, by name and status",
		}, []string{"name", "status"}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_rpc_duration_seconds",
			Help:    "Duration of GraphQL round trips",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"code", "method"}),
	}
}

// Middleware counts every command and every promise lifecycle event.
func (m *Metrics) Middleware(next engine.CommandFunc) engine.CommandFunc {
	return func(ctx context.Context, cmd engine.Command) bool {
		changed := next(ctx, cmd)
		m.Commands.WithLabelValues(cmd.Type(), strconv.FormatBool(changed)).Inc()
		if lc, ok := cmd.(promise.Lifecycle); ok {
			m.Operations.WithLabelValues(lc.Name, string(lc.Status)).Inc()
		}
		return changed
	}
}

// Transport wraps rt so that every round trip is observed in RPCDuration.
// A nil rt means http.DefaultTransport.
func (m *Metrics) Transport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperDuration(m.RPCDuration, rt)
}
