package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"sub":   map[string]any{"login": "bob", "id": float64(7)},
		"price": 12.5,
		"tags":  []any{"x", true, nil},
	})
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Float(12.5), obj["price"])
	assert.Equal(t, Object{"login": String("bob"), "id": Int(7)}, obj.GetObject("sub"))
	assert.Equal(t, Array{String("x"), Bool(true), Null{}}, obj["tags"])
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	assert.Error(t, err)
}

func TestObjectAccessors(t *testing.T) {
	obj := NewObject(
		O("name", String("cart")),
		O("count", Int(3)),
		O("whole", Float(4)),
		O("half", Float(4.5)),
	)

	assert.Equal(t, "cart", obj.GetString("name"))
	assert.Equal(t, "", obj.GetString("count"))

	n, ok := obj.GetInt("count")
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	n, ok = obj.GetInt("whole")
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	_, ok = obj.GetInt("half")
	assert.False(t, ok)

	assert.Nil(t, obj.GetObject("name"))
}

func TestObjectClone_Independent(t *testing.T) {
	orig := Object{"a": Int(1)}
	cp := orig.Clone()
	cp["b"] = Int(2)

	assert.Len(t, orig, 1)
	assert.Len(t, cp, 2)
}

func TestObjectJSON(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"b":[1,2.5],"a":{"c":null}}`), &obj))

	assert.Equal(t, Array{Int(1), Float(2.5)}, obj["b"])
	assert.Equal(t, Object{"c": Null{}}, obj["a"])

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":null},"b":[1,2.5]}`, string(data))
}

func TestObjectUnmarshal_RejectsNonObject(t *testing.T) {
	var obj Object
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &obj))
}

func TestToAny_RoundTrip(t *testing.T) {
	in := map[string]any{
		"s": "x",
		"n": int64(2),
		"f": 0.25,
		"b": false,
		"a": []any{int64(1)},
		"o": map[string]any{"z": nil},
	}
	v, err := FromAny(in)
	require.NoError(t, err)
	assert.Equal(t, in, ToAny(v))
}
