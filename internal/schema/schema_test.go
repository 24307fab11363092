package schema

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path":  {Type: "string"},
			"limit": {Type: "integer"},
		},
		Required: []string{"path"},
	}
}

func TestCompileAndValidate_Success(t *testing.T) {
	n := Compile(objSchema())
	v := NewValidator(n)

	out, verr := v.Validate(map[string]any{"path": ".", "limit": float64(10)})
	require.Nil(t, verr)
	m := out.(map[string]any)
	assert.Equal(t, ".", m["path"])
	assert.Equal(t, float64(10), m["limit"])
}

func TestValidate_MissingRequired(t *testing.T) {
	n := Compile(objSchema())
	v := NewValidator(n)

	_, verr := v.Validate(map[string]any{})
	require.NotNil(t, verr)
	assert.Equal(t, "path", verr.Path)
}

func TestValidate_WrongType(t *testing.T) {
	n := Compile(objSchema())
	v := NewValidator(n)

	_, verr := v.Validate(map[string]any{"path": 5})
	require.NotNil(t, verr)
	assert.Contains(t, verr.Error(), "expected string")
}

func TestValidate_OptionalFieldOmitted(t *testing.T) {
	n := Compile(objSchema())
	v := NewValidator(n)

	out, verr := v.Validate(map[string]any{"path": "."})
	require.Nil(t, verr)
	m := out.(map[string]any)
	_, hasLimit := m["limit"]
	assert.False(t, hasLimit)
}

func TestUnknownTypeCollapses(t *testing.T) {
	n := Compile(&jsonschema.Schema{})
	assert.Equal(t, KindUnknown, n.Kind)
	assert.Equal(t, "unknown", n.TypeName())
}

func TestArrayValidate(t *testing.T) {
	n := Compile(&jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})
	v := NewValidator(n)

	out, verr := v.Validate([]any{"a", "b"})
	require.Nil(t, verr)
	assert.Equal(t, []any{"a", "b"}, out)

	_, verr = v.Validate([]any{"a", 5})
	require.NotNil(t, verr)
	assert.Contains(t, verr.Path, "[1]")
}

func TestTypeNameRendering(t *testing.T) {
	n := Compile(objSchema())
	assert.Equal(t, "{ limit?: number; path: string }", n.TypeName())
}
