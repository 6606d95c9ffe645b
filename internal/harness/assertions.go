package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/storefront/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fields, _ := ir.MarshalCanonical(event.Fields)
			fmt.Fprintf(&buf, "  [%d] %s %s changed=%v\n", event.Seq, event.Type, fields, event.Changed)
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains a command matching
// the specified type and fields (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	expected, err := ir.ObjectFromAny(assertion.Args)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	for _, event := range trace {
		if event.Type == assertion.Action && matchValue(event.Fields, expected) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("command %s with fields %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if commands appear in the specified order.
// Commands don't need to be consecutive (intervening commands are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Each expected command must occur after the previous match.
	pos := 0
	for _, want := range assertion.Actions {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Type == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("commands in order: %v", assertion.Actions),
				Actual:   fmt.Sprintf("no %s after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the command appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState matches a slice, or one entry of it, against the
// expected value. Absent with no key means the slice is empty.
func assertFinalState(state ir.Object, assertion Assertion) error {
	value, ok := state[assertion.Slice]
	if !ok {
		return fmt.Errorf("final_state: unknown slice %q", assertion.Slice)
	}
	where := assertion.Slice

	if assertion.Key != "" {
		where = fmt.Sprintf("%s[%q]", assertion.Slice, assertion.Key)
		obj, _ := value.(ir.Object)
		entry, present := obj[assertion.Key]
		if assertion.Absent {
			if present {
				return &AssertionError{
					Type:     AssertFinalState,
					Expected: where + " absent",
					Actual:   "present: " + render(entry),
				}
			}
			return nil
		}
		if !present {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: where + " present",
				Actual:   "absent",
			}
		}
		value = entry
	} else if assertion.Absent {
		if obj, isObj := value.(ir.Object); !isObj || len(obj) > 0 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: where + " empty",
				Actual:   render(value),
			}
		}
		return nil
	}

	expected, err := ir.FromAny(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state expect: %w", err)
	}
	if !matchValue(value, expected) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s matching %s", where, render(expected)),
			Actual:   render(value),
		}
	}
	return nil
}

// assertStorage checks one credential store key.
func assertStorage(storage map[string]string, assertion Assertion) error {
	value, present := storage[assertion.Key]
	switch {
	case assertion.Absent && present:
		return &AssertionError{
			Type:     AssertStorage,
			Expected: fmt.Sprintf("%s absent", assertion.Key),
			Actual:   fmt.Sprintf("%q", value),
		}
	case assertion.Absent:
		return nil
	case !present:
		return &AssertionError{
			Type:     AssertStorage,
			Expected: fmt.Sprintf("%s present", assertion.Key),
			Actual:   "absent",
		}
	case assertion.Value != "" && value != assertion.Value:
		return &AssertionError{
			Type:     AssertStorage,
			Expected: fmt.Sprintf("%s = %q", assertion.Key, assertion.Value),
			Actual:   fmt.Sprintf("%q", value),
		}
	}
	return nil
}

func assertNotifyCount(result *Result, assertion Assertion) error {
	if result.Notified != assertion.Count {
		return &AssertionError{
			Type:     AssertNotifyCount,
			Expected: fmt.Sprintf("%d notification passes", assertion.Count),
			Actual:   fmt.Sprintf("%d", result.Notified),
			Trace:    result.Trace,
		}
	}
	return nil
}

// matchValue reports whether actual matches expected. Objects match as
// subsets at every depth; arrays match element-wise with equal length.
// Integral numbers compare equal across Int and Float.
func matchValue(actual, expected ir.Value) bool {
	switch exp := expected.(type) {
	case nil, ir.Null:
		switch actual.(type) {
		case nil, ir.Null:
			return true
		}
		return false
	case ir.Object:
		act, ok := actual.(ir.Object)
		if !ok {
			return false
		}
		for key, want := range exp {
			got, exists := act[key]
			if !exists || !matchValue(got, want) {
				return false
			}
		}
		return true
	case ir.Array:
		act, ok := actual.(ir.Array)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchValue(act[i], exp[i]) {
				return false
			}
		}
		return true
	case ir.Int:
		return numberEqual(actual, float64(exp))
	case ir.Float:
		return numberEqual(actual, float64(exp))
	case ir.String:
		got, ok := actual.(ir.String)
		return ok && got == exp
	case ir.Bool:
		got, ok := actual.(ir.Bool)
		return ok && got == exp
	}
	return false
}

func numberEqual(actual ir.Value, want float64) bool {
	switch got := actual.(type) {
	case ir.Int:
		return float64(got) == want
	case ir.Float:
		return float64(got) == want
	}
	return false
}

func render(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertStorage:
			err = assertStorage(result.Storage, assertion)
		case AssertNotifyCount:
			err = assertNotifyCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
