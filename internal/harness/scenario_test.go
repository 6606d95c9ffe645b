package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
storage:
  authToken: abc
flow:
  - dispatch: CART_ADD
    args:
      good: { _id: widget, price: 3 }
      count: 2
    expect: { changed: true }
  - effect: login
    args: { login: demo, password: demo }
    expect: { status: FULFILLED }
assertions:
  - type: trace_contains
    action: CART_ADD
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, map[string]string{"authToken": "abc"}, scenario.Storage)
	require.Len(t, scenario.Flow, 2)
	assert.Equal(t, "CART_ADD", scenario.Flow[0].Dispatch)
	assert.Equal(t, 2, scenario.Flow[0].Args["count"])
	require.NotNil(t, scenario.Flow[0].Expect.Changed)
	assert.True(t, *scenario.Flow[0].Expect.Changed)
	assert.Equal(t, "login", scenario.Flow[1].Effect)
	assert.Equal(t, "FULFILLED", scenario.Flow[1].Expect.Status)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
flow:
  - dispatch: CART_CLEAR
assertion:
  - type: notify_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: notify_count }]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: notify_count }]
`,
			wantErr: "description is required",
		},
		{
			name: "missing flow",
			content: `
name: n
description: d
assertions: [{ type: notify_count }]
`,
			wantErr: "flow list is required",
		},
		{
			name: "missing assertions",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "step without action",
			content: `
name: n
description: d
flow: [{ args: { a: 1 } }]
assertions: [{ type: notify_count }]
`,
			wantErr: "dispatch or effect is required",
		},
		{
			name: "step with both",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR, effect: orders }]
assertions: [{ type: notify_count }]
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "unknown effect",
			content: `
name: n
description: d
flow: [{ effect: teleport }]
assertions: [{ type: notify_count }]
`,
			wantErr: `unknown effect "teleport"`,
		},
		{
			name: "status on a command",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR, expect: { status: FULFILLED } }]
assertions: [{ type: notify_count }]
`,
			wantErr: "apply to effects only",
		},
		{
			name: "changed on an effect",
			content: `
name: n
description: d
flow: [{ effect: orders, expect: { changed: true } }]
assertions: [{ type: notify_count }]
`,
			wantErr: "applies to commands only",
		},
		{
			name: "unknown assertion",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: vibes }]
`,
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name: "trace_order with one action",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: trace_order, actions: [CART_CLEAR] }]
`,
			wantErr: "at least 2 actions",
		},
		{
			name: "negative trace_count",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: trace_count, action: CART_CLEAR, count: -1 }]
`,
			wantErr: "count must be >= 0",
		},
		{
			name: "final_state without expect",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: final_state, slice: cart }]
`,
			wantErr: "requires expect or absent",
		},
		{
			name: "storage without key",
			content: `
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: storage }]
`,
			wantErr: "storage requires key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_TraceCountZeroAllowed(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: n
description: d
flow: [{ dispatch: CART_CLEAR }]
assertions: [{ type: trace_count, action: CART_ADD, count: 0 }]
`))
	require.NoError(t, err)
}

func TestLoadScenario_ExampleScenarios(t *testing.T) {
	files, err := ScenarioFiles("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), scenario.Name+".yaml", "file name should match scenario name")
		})
	}
}
