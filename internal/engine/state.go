package engine

import "slices"

// State is the immutable composite store state: a mapping from slice name to
// slice value. A transition never modifies a State; Combine builds a new one
// that carries unchanged slice values over as-is.
type State struct {
	slices map[string]any
}

// Get returns the value of the named slice.
func (s State) Get(name string) (any, bool) {
	v, ok := s.slices[name]
	return v, ok
}

// Len returns the number of slices.
func (s State) Len() int {
	return len(s.slices)
}

// Names returns slice names in sorted order.
func (s State) Names() []string {
	names := make([]string, 0, len(s.slices))
	for name := range s.slices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// with returns a new State with changes applied over s.
func (s State) with(changes map[string]any) State {
	next := make(map[string]any, len(s.slices)+len(changes))
	for k, v := range s.slices {
		next[k] = v
	}
	for k, v := range changes {
		next[k] = v
	}
	return State{slices: next}
}

// Select returns the named slice with its static type. It returns the zero
// value of S when the slice is absent or holds a different type.
func Select[S any](s State, name string) S {
	v, _ := s.slices[name].(S)
	return v
}
