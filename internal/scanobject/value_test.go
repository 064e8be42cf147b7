package scanobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromAnyPassesThroughRepresentableKinds(t *testing.T) {
	cases := []struct {
		in       interface{}
		wantKind Kind
	}{
		{nil, KindNull},
		{true, KindBool},
		{int64(7), KindInt},
		{3.5, KindFloat},
		{"text", KindString},
		{[]byte("raw"), KindBytes},
		{[]interface{}{"a", int64(1)}, KindList},
		{map[string]interface{}{"k": "v"}, KindMap},
	}
	for _, c := range cases {
		val, coerced := FromAny(c.in)
		assert.False(t, coerced, "%v should not be coerced", c.in)
		assert.Equal(t, c.wantKind, val.Kind())
	}
}

// TestFromAnyCoercesUnrepresentableValues covers spec.md §6.3: "Unknown
// metadata values that are not JSON-representable are coerced to their
// string form" — exercised here with a type outside Value's closed kind
// set (a struct), which FromAny's switch falls through to its default arm
// for.
func TestFromAnyCoercesUnrepresentableValues(t *testing.T) {
	type custom struct{ X int }

	val, coerced := FromAny(custom{X: 3})
	assert.True(t, coerced)
	assert.Equal(t, KindString, val.Kind())
	assert.Equal(t, "{3}", val.ToJSON())
}

func TestFromAnyPropagatesCoercionThroughNestedContainers(t *testing.T) {
	type custom struct{ X int }

	_, coerced := FromAny([]interface{}{"fine", custom{X: 1}})
	assert.True(t, coerced)

	_, coerced = FromAny(map[string]interface{}{"ok": "fine", "bad": custom{X: 1}})
	assert.True(t, coerced)
}
