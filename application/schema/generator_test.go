package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

func TestGenerate_SimpleStruct(t *testing.T) {
	type Ping struct {
		Seq  uint64 `json:"seq"`
		Note string `json:"note,omitempty"`
	}

	schema, err := Generate(Ping{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))
	assert.Equal(t, "object", decoded["type"])

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "seq")
	assert.Contains(t, props, "note")
}

func TestGenerate_Pointer(t *testing.T) {
	type Msg struct {
		Value int `json:"value"`
	}

	fromPtr, err := Generate(&Msg{})
	require.NoError(t, err)
	fromValue, err := Generate(Msg{})
	require.NoError(t, err)

	assert.JSONEq(t, string(fromValue), string(fromPtr))
}

func TestGenerate_Nested(t *testing.T) {
	type Target struct {
		Thread uint64 `json:"thread"`
	}
	type Msg struct {
		Target Target `json:"target"`
	}

	schema, err := Generate(Msg{})
	require.NoError(t, err)
	assert.Contains(t, string(schema), "thread")
	assert.NotContains(t, string(schema), "$ref")
}

func TestGenerate_Invalid(t *testing.T) {
	_, err := Generate(nil)
	var se *sdkerrors.SchemaError
	require.True(t, errors.As(err, &se))

	_, err = Generate(make(chan int))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "chan int", se.Type)
}
