package engine

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapPtr(m any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func TestCombine_InitializesEverySlice(t *testing.T) {
	inits := 0
	root := Combine(
		Slice[int]("count", counter{inits: &inits}),
		Slice[tags]("tags", tagger{}),
	)

	st, changed := root(State{}, InitCommand)

	require.True(t, changed)
	assert.Equal(t, []string{"count", "tags"}, st.Names())
	assert.Equal(t, 0, Select[int](st, "count"))
	assert.Equal(t, tags{}, Select[tags](st, "tags"))
	assert.Equal(t, 1, inits)

	// Init is not called again once the slice exists
	_, _ = root(st, incr{by: 1})
	assert.Equal(t, 1, inits)
}

func TestCombine_UnknownCommandReturnsSameState(t *testing.T) {
	root := testReducer()
	st, _ := root(State{}, InitCommand)

	next, changed := root(st, unknown{})

	assert.False(t, changed)
	assert.Equal(t, mapPtr(st.slices), mapPtr(next.slices), "composite state must be the same object")
}

func TestCombine_UnchangedSlicesKeepIdentity(t *testing.T) {
	root := testReducer()
	st, _ := root(State{}, InitCommand)
	st, _ = root(st, tag{name: "a"})
	before := Select[tags](st, "tags")

	next, changed := root(st, incr{by: 2})

	require.True(t, changed)
	assert.NotEqual(t, mapPtr(st.slices), mapPtr(next.slices), "composite state must be a new object")
	assert.Equal(t, mapPtr(before), mapPtr(Select[tags](next, "tags")), "untouched slice must be carried over")
	assert.Equal(t, 2, Select[int](next, "count"))
	assert.Equal(t, 0, Select[int](st, "count"), "previous state must not change")
}

func TestCombine_InitializesMissingSliceLazily(t *testing.T) {
	root := testReducer()
	partial := State{slices: map[string]any{"count": 5}}

	next, changed := root(partial, incr{by: 1})

	require.True(t, changed)
	assert.Equal(t, 6, Select[int](next, "count"))
	assert.Equal(t, tags{}, Select[tags](next, "tags"))
}

func TestCombine_DuplicateSlicePanics(t *testing.T) {
	assert.Panics(t, func() {
		Combine(Slice[int]("count", counter{}), Slice[int]("count", counter{}))
	})
}

func TestSlice_WrongTypePanics(t *testing.T) {
	root := Combine(Slice[int]("count", counter{}))
	bad := State{slices: map[string]any{"count": "nope"}}

	assert.Panics(t, func() { root(bad, incr{by: 1}) })
}

func TestSelect_MissingOrMistyped(t *testing.T) {
	st := State{slices: map[string]any{"count": 3}}

	assert.Equal(t, 0, Select[int](st, "missing"))
	assert.Equal(t, "", Select[string](st, "count"))

	v, ok := st.Get("count")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, st.Len())
}
