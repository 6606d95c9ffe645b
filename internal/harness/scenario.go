package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted storefront session.
// The flow runs against a fresh store and an in-process sandbox backend;
// assertions then check the recorded commands and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Storage pre-populates the credential store before the store is
	// created, so the auth slice can restore a session on init.
	Storage map[string]string `yaml:"storage,omitempty"`

	// Flow is dispatched in order. Each step is either a command (by wire
	// tag) or a named shop effect.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep dispatches one action. Exactly one of Dispatch and Effect is set.
type FlowStep struct {
	// Dispatch is a command wire tag such as CART_ADD.
	Dispatch string `yaml:"dispatch,omitempty"`

	// Effect names a shop effect such as login or checkout.
	Effect string `yaml:"effect,omitempty"`

	// Args are the command fields or effect arguments.
	// AUTH_LOGIN accepts claims in place of token; the harness signs them.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect optionally checks the outcome of this step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks a single step.
type ExpectClause struct {
	// Changed is the expected reducer outcome of a command step.
	Changed *bool `yaml:"changed,omitempty"`

	// Status is the expected promise status of an effect step.
	Status string `yaml:"status,omitempty"`

	// Error is the expected rejection message of an effect step.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a command with matching fields was dispatched
	// - "trace_order": commands were dispatched in this relative order
	// - "trace_count": a command was dispatched exactly Count times
	// - "final_state": a slice (or one entry of it) matches Expect
	// - "storage": the credential store holds Value under Key
	// - "notify_count": subscribers were notified exactly Count times
	Type string `yaml:"type"`

	// Action is the command wire tag (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected command fields (trace_contains). Subset match.
	Args map[string]any `yaml:"args,omitempty"`

	// Slice is the state slice name (final_state).
	Slice string `yaml:"slice,omitempty"`

	// Key selects one entry of a map-shaped slice (final_state, storage).
	Key string `yaml:"key,omitempty"`

	// Expect is matched against the selected value (final_state).
	// Objects match as subsets; everything else must be equal.
	Expect any `yaml:"expect,omitempty"`

	// Absent asserts the key is missing (final_state, storage).
	Absent bool `yaml:"absent,omitempty"`

	// Value is the expected stored string (storage).
	Value string `yaml:"value,omitempty"`

	// Count is the expected number of occurrences.
	Count int `yaml:"count,omitempty"`

	// Actions is the expected command order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertStorage       = "storage"
	AssertNotifyCount   = "notify_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		switch {
		case step.Dispatch == "" && step.Effect == "":
			return fmt.Errorf("flow[%d]: dispatch or effect is required", i)
		case step.Dispatch != "" && step.Effect != "":
			return fmt.Errorf("flow[%d]: dispatch and effect are mutually exclusive", i)
		}
		if step.Effect != "" {
			if _, ok := effects[step.Effect]; !ok {
				return fmt.Errorf("flow[%d]: unknown effect %q", i, step.Effect)
			}
		}
		if step.Expect == nil {
			continue
		}
		if step.Dispatch != "" && (step.Expect.Status != "" || step.Expect.Error != "") {
			return fmt.Errorf("flow[%d].expect: status and error apply to effects only", i)
		}
		if step.Effect != "" && step.Expect.Changed != nil {
			return fmt.Errorf("flow[%d].expect: changed applies to commands only", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: trace_contains requires action", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: trace_count requires action", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: trace_count count must be >= 0", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) < 2 {
			return fmt.Errorf("assertions[%d]: trace_order requires at least 2 actions", index)
		}
	case AssertFinalState:
		if a.Slice == "" {
			return fmt.Errorf("assertions[%d]: final_state requires slice", index)
		}
		if a.Expect == nil && !a.Absent {
			return fmt.Errorf("assertions[%d]: final_state requires expect or absent", index)
		}
	case AssertStorage:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: storage requires key", index)
		}
	case AssertNotifyCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: notify_count count must be >= 0", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
