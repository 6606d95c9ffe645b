package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/storefront/internal/ir"
)

// Snapshot is the golden form of a scenario run.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Trace        []TraceEvent      `json:"trace"`
	Notified     int               `json:"notified"`
	State        ir.Object         `json:"state"`
	Storage      map[string]string `json:"storage"`
}

// NewSnapshot captures result under name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Notified:     result.Notified,
		State:        result.State,
		Storage:      result.Storage,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		fields := event.Fields
		if fields == nil {
			fields = ir.Object{}
		}
		traceList[i] = map[string]any{
			"seq":     event.Seq,
			"type":    event.Type,
			"fields":  fields,
			"changed": event.Changed,
		}
	}

	storage := make(map[string]any, len(s.Storage))
	for k, v := range s.Storage {
		storage[k] = v
	}

	state := s.State
	if state == nil {
		state = ir.Object{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"notified":      s.Notified,
		"state":         state,
		"storage":       storage,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
