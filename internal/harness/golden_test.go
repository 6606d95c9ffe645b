package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/ir"
)

// Golden files cover the command-only scenarios; effect scenarios carry
// sandbox payloads and are checked through their assertions instead.
func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"cart_lifecycle", "session_restore", "promise_lifecycle"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestSnapshot_CanonicalShape(t *testing.T) {
	result := NewResult()
	result.AddTrace("AUTH_LOGIN", ir.NewObject(ir.O("token", ir.String("a<b>&c"))), true)
	result.State = ir.NewObject(ir.O("cart", ir.Object{}))
	result.Storage = map[string]string{"authToken": "a<b>&c"}
	result.Notified = 1

	snapshot := NewSnapshot("shape", result)
	data, err := snapshot.MarshalCanonical()
	require.NoError(t, err)

	assert.Equal(t,
		`{"notified":1,"scenario_name":"shape","state":{"cart":{}},"storage":{"authToken":"a<b>&c"},`+
			`"trace":[{"changed":true,"fields":{"token":"a<b>&c"},"seq":1,"type":"AUTH_LOGIN"}]}`,
		string(data))
}

func TestSnapshot_NilFieldsRenderEmpty(t *testing.T) {
	snapshot := Snapshot{
		ScenarioName: "empty",
		Trace:        []TraceEvent{{Seq: 1, Type: "CART_CLEAR"}},
	}
	data, err := snapshot.MarshalCanonical()
	require.NoError(t, err)

	assert.Equal(t,
		`{"notified":0,"scenario_name":"empty","state":{},"storage":{},`+
			`"trace":[{"changed":false,"fields":{},"seq":1,"type":"CART_CLEAR"}]}`,
		string(data))
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/promise_lifecycle.yaml")
	require.NoError(t, err)

	var outputs []string
	for i := 0; i < 5; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		snapshot := NewSnapshot(scenario.Name, result)
		data, err := snapshot.MarshalCanonical()
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	for i := 1; i < len(outputs); i++ {
		assert.Equal(t, outputs[0], outputs[i], "run %d differs", i)
	}
}
