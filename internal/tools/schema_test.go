// ABOUTME: Tests for the input contract checker
// ABOUTME: Covers fail-closed rejection, coercion, defaults, and schema rendering

package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{Fields: []Field{
		{Name: "objectType", Type: TypeString, Required: true, Enum: []string{"contacts", "deals"}},
		{Name: "limit", Type: TypeInteger, Min: 1, Max: 100, Default: 10},
		{Name: "since", Type: TypeTimestamp},
		{Name: "archived", Type: TypeBoolean, Default: false},
		{Name: "ids", Type: TypeStringArr},
	}}
}

func TestValidate_UnknownKeyRejected(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{
		"objectType": "contacts",
		"bogus":      1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown argument")
	assert.Contains(t, err.Error(), "bogus")
}

func TestValidate_MissingRequired(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"limit": 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objectType")
}

func TestValidate_EnumViolation(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"objectType": "widgets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidate_DefaultsApplied(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{"objectType": "contacts"})
	require.NoError(t, err)
	assert.Equal(t, 10, out["limit"])
	assert.Equal(t, false, out["archived"])
	_, present := out["since"]
	assert.False(t, present, "optional field without default stays absent")
}

func TestValidate_IntegerCoercion(t *testing.T) {
	// JSON decoding hands us float64; whole values coerce, fractions reject.
	out, err := testSchema().Validate(map[string]any{"objectType": "deals", "limit": float64(25)})
	require.NoError(t, err)
	assert.Equal(t, 25, out["limit"])

	_, err = testSchema().Validate(map[string]any{"objectType": "deals", "limit": 2.5})
	assert.Error(t, err)
}

func TestValidate_IntegerBounds(t *testing.T) {
	for _, bad := range []any{0, 101} {
		_, err := testSchema().Validate(map[string]any{"objectType": "deals", "limit": bad})
		assert.Error(t, err, "limit %v should be out of range", bad)
	}
}

func TestValidate_TimestampForms(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{"objectType": "deals", "since": float64(1700000000000)})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", out["since"])

	out, err = testSchema().Validate(map[string]any{"objectType": "deals", "since": "1700000000000"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", out["since"])

	_, err = testSchema().Validate(map[string]any{"objectType": "deals", "since": "yesterday"})
	assert.Error(t, err)
}

func TestValidate_StringArray(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{
		"objectType": "contacts",
		"ids":        []any{"1", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, out["ids"])

	_, err = testSchema().Validate(map[string]any{
		"objectType": "contacts",
		"ids":        []any{"1", 2},
	})
	assert.Error(t, err)
}

func TestValidate_TypeMismatch(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"objectType": 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")

	_, err = testSchema().Validate(map[string]any{"objectType": "deals", "archived": "yes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a boolean")
}

func TestJSONSchema_Rendering(t *testing.T) {
	raw := testSchema().JSONSchema()

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"objectType"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	limit, ok := props["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, float64(1), limit["minimum"])
	assert.Equal(t, float64(100), limit["maximum"])
	assert.Equal(t, float64(10), limit["default"])

	objectType, ok := props["objectType"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"contacts", "deals"}, objectType["enum"])
}
