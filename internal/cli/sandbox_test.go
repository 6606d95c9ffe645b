package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxCommandFlags(t *testing.T) {
	cmd := NewSandboxCommand(&RootOptions{Format: "text"})

	addr := cmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, ":8090", addr.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("seed"))
	assert.NotNil(t, cmd.Flags().Lookup("secret"))
}

func TestSandboxHandler_ServesGraphQLAndMetrics(t *testing.T) {
	handler, err := newSandboxHandler(&SandboxOptions{RootOptions: &RootOptions{}})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"query { CategoryFind(query: $q) { _id } }","variables":{"q":"[{\"parent\":null}]"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSandboxHandler_SeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("categories:\n  - _id: cat-x\n    name: X\n"), 0644))

	_, err := newSandboxHandler(&SandboxOptions{RootOptions: &RootOptions{}, Seed: seed})
	require.NoError(t, err)

	_, err = newSandboxHandler(&SandboxOptions{RootOptions: &RootOptions{}, Seed: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serve(ctx, "127.0.0.1:0", http.NotFoundHandler()))
}
