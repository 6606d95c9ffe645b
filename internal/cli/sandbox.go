package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/sandbox"
)

// SandboxOptions holds flags for the sandbox command.
type SandboxOptions struct {
	*RootOptions
	Addr   string
	Seed   string
	Secret string
}

// NewSandboxCommand creates the sandbox command.
func NewSandboxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SandboxOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory shop backend",
		Long: `Serve the shop's GraphQL operations from memory for local development.

The catalog comes from the built-in seed unless --seed names a YAML file.
Point the other commands at it with --endpoint http://localhost:8090/graphql.
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := newSandboxHandler(opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), opts.Addr, handler)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML seed file (default built-in catalog)")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "token signing secret (default development secret)")

	return cmd
}

func newSandboxHandler(opts *SandboxOptions) (http.Handler, error) {
	seed, err := loadSeed(opts.Seed)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load seed", err)
	}
	backend, err := sandbox.NewBackend(seed, sandbox.Config{Secret: opts.Secret})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build backend", err)
	}
	return sandbox.NewServer(backend, slog.Default(), prometheus.NewRegistry()).Routes(), nil
}

func loadSeed(path string) (*sandbox.Seed, error) {
	if path == "" {
		return sandbox.DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sandbox.ParseSeed(data)
}

// serve runs handler on addr until ctx is cancelled or the process gets
// SIGINT or SIGTERM, then shuts down with a grace period.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("sandbox listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("listen on %s", addr), err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("sandbox shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
