package engine

import "fmt"

// Reducer computes the next composite state for a command. changed reports
// whether next differs from state; when it is false, next must be state.
//
// Reducers are pure with respect to the store: they must not call Dispatch.
type Reducer func(state State, cmd Command) (next State, changed bool)

// SliceReducer owns one slice of the composite state.
//
// Init produces the default slice value. It is called at most once per slice
// per store, when the slice is first seen. Reduce returns the next value
// and whether it changed; unknown commands return (state, false).
type SliceReducer[S any] interface {
	Init() S
	Reduce(state S, cmd Command) (S, bool)
}

// SliceSpec binds a SliceReducer to a slice name. Build one with Slice.
type SliceSpec struct {
	name   string
	init   func() any
	reduce func(state any, cmd Command) (any, bool)
}

// Name returns the slice name.
func (s SliceSpec) Name() string {
	return s.name
}

// Slice binds r to name.
func Slice[S any](name string, r SliceReducer[S]) SliceSpec {
	return SliceSpec{
		name: name,
		init: func() any { return r.Init() },
		reduce: func(state any, cmd Command) (any, bool) {
			typed, ok := state.(S)
			if !ok {
				panic(fmt.Sprintf("engine: slice %q holds %T, want %T", name, state, typed))
			}
			return r.Reduce(typed, cmd)
		},
	}
}

// Combine composes slice reducers into one root Reducer.
//
// Slices are evaluated in declaration order. A slice absent from the incoming
// state is initialized first and always counts as changed. When no slice
// changes, the incoming state is returned with changed=false, so the store
// skips notification.
//
// Combine panics on duplicate slice names.
func Combine(specs ...SliceSpec) Reducer {
	seen := make(map[string]bool, len(specs))
	ordered := make([]SliceSpec, len(specs))
	for i, spec := range specs {
		if seen[spec.name] {
			panic(fmt.Sprintf("engine: duplicate slice %q", spec.name))
		}
		seen[spec.name] = true
		ordered[i] = spec
	}

	return func(state State, cmd Command) (State, bool) {
		var changes map[string]any
		for _, spec := range ordered {
			prev, ok := state.slices[spec.name]

			var next any
			changed := true
			if ok {
				next, changed = spec.reduce(prev, cmd)
			} else {
				next, _ = spec.reduce(spec.init(), cmd)
			}

			if changed {
				if changes == nil {
					changes = make(map[string]any, len(ordered))
				}
				changes[spec.name] = next
			}
		}

		if len(changes) == 0 {
			return state, false
		}
		return state.with(changes), true
	}
}
