package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	t.Parallel()

	input := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	got, err := Marshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(got))
}

func TestMarshalNoWhitespace(t *testing.T) {
	t.Parallel()

	got, err := Marshal(map[string]any{"x": []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, `{"x":[1,2,3]}`, string(got))
}

func TestMarshalIsDeterministic(t *testing.T) {
	t.Parallel()

	type packet struct {
		ID     string         `json:"id"`
		Status string         `json:"status"`
		Extra  map[string]any `json:"extra"`
	}

	a := packet{ID: "P-1", Status: "done", Extra: map[string]any{"b": 1, "a": "x"}}
	got1, err := Marshal(a)
	require.NoError(t, err)
	got2, err := Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, got1, got2)
}

func TestMarshalRejectsNaN(t *testing.T) {
	t.Parallel()

	_, err := Marshal(map[string]any{"x": math.NaN()})
	require.Error(t, err)
}

func TestMarshalRejectsInf(t *testing.T) {
	t.Parallel()

	_, err := Marshal(map[string]any{"x": math.Inf(1)})
	require.Error(t, err)
}

func TestMarshalPreservesIntVsFloat(t *testing.T) {
	t.Parallel()

	got, err := Marshal(map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"n":3}`, string(got))

	got2, err := Marshal(map[string]any{"n": 3.0})
	require.NoError(t, err)
	assert.Equal(t, `{"n":3.0}`, string(got2), "a whole-valued float must not render identically to an int")

	got3, err := Marshal(map[string]any{"n": 3.5})
	require.NoError(t, err)
	assert.Equal(t, `{"n":3.5}`, string(got3))

	assert.NotEqual(t, got, got2, "int 3 and float 3.0 must canonicalize to different bytes")
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	t.Parallel()

	got, err := Marshal(map[string]any{"s": "<b>&tags</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"s":"<b>&tags</b>"}`, string(got))
}

func TestMarshalStructHonorsTagsAndOmitempty(t *testing.T) {
	t.Parallel()

	type inner struct {
		Label string `json:"label"`
	}
	type outer struct {
		ID       string `json:"id"`
		Hidden   string `json:"-"`
		Empty    string `json:"empty,omitempty"`
		Renamed  string `json:"renamed_field"`
		Unset    string
		Inner    inner  `json:"inner"`
		InnerPtr *inner `json:"inner_ptr,omitempty"`
	}

	got, err := Marshal(outer{ID: "P-1", Hidden: "secret", Renamed: "x", Inner: inner{Label: "l"}})
	require.NoError(t, err)
	assert.Equal(t, `{"Unset":"","id":"P-1","inner":{"label":"l"},"renamed_field":"x"}`, string(got))
}

func TestMarshalStructPointerFieldPresent(t *testing.T) {
	t.Parallel()

	type inner struct {
		Label string `json:"label"`
	}
	type outer struct {
		InnerPtr *inner `json:"inner_ptr,omitempty"`
	}

	got, err := Marshal(outer{InnerPtr: &inner{Label: "l"}})
	require.NoError(t, err)
	assert.Equal(t, `{"inner_ptr":{"label":"l"}}`, string(got))
}

func TestHashIsStableAndHex(t *testing.T) {
	t.Parallel()

	h1, err := Hash(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
