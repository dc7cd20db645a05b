package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openentry/entry-extension/domain/entities"
)

func TestContractError(t *testing.T) {
	err := &ContractError{
		Operation: "vm_interrupt",
		Reason:    "lock still held after drop request",
	}

	assert.Equal(t, "contract violation in vm_interrupt: lock still held after drop request", err.Error())

	var ce *ContractError
	require.True(t, errors.As(fmt.Errorf("step: %w", err), &ce))
	assert.Equal(t, "vm_interrupt", ce.Operation)
}

func TestContractError_Wrapped(t *testing.T) {
	err := &ContractError{Operation: "bindings", Reason: "read before init", Err: ErrNotInitialized}

	assert.Equal(t, "contract violation in bindings: read before init: extension bindings not initialized", err.Error())
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestSlotTypeError(t *testing.T) {
	err := &SlotTypeError{Want: "string", Have: "int32"}

	assert.Equal(t, "extension data slot holds int32, read as string", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "slot", detail.Type)
	assert.Equal(t, "type_mismatch", detail.Code)
	assert.Equal(t, "int32", detail.Details["have"])
}

func TestSymbolError(t *testing.T) {
	missing := &SymbolError{Symbol: "VmInit", Err: errors.New("symbol not found")}
	assert.Equal(t, "symbol VmInit: symbol not found", missing.Error())

	mistyped := &SymbolError{Symbol: "VmInit", Got: "func()"}
	assert.Equal(t, "symbol VmInit has type func()", mistyped.Error())
}

func TestDefinitionError(t *testing.T) {
	base := errors.New("required")
	err := &DefinitionError{Field: "Name", Err: base}

	assert.Equal(t, "definition validation failed for field 'Name': required", err.Error())
	assert.True(t, errors.Is(err, base))

	assert.Equal(t, "definition validation failed: required", (&DefinitionError{Err: base}).Error())
}

func TestSchemaError(t *testing.T) {
	err := &SchemaError{Type: "chan int", Err: errors.New("unsupported")}
	assert.Equal(t, "schema error for type chan int: unsupported", err.Error())
}

func TestPanicError(t *testing.T) {
	err := &PanicError{Value: "boom", Where: "interrupt 42", Stack: []byte("goroutine 1")}
	assert.Equal(t, "panic in interrupt 42: boom", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "panic", detail.Type)
	assert.Equal(t, "interrupt 42", detail.Code)
	assert.Equal(t, "panic in interrupt 42: boom", detail.Message)
	assert.Equal(t, []byte("goroutine 1"), detail.Stack)
}

func TestToErrorDetail(t *testing.T) {
	assert.Nil(t, ToErrorDetail(nil))

	t.Run("detailed error", func(t *testing.T) {
		detail := ToErrorDetail(fmt.Errorf("wrapped: %w", &ContractError{Operation: "init", Reason: "nil runtime"}))
		assert.Equal(t, "contract", detail.Type)
		assert.Equal(t, "init", detail.Code)
	})

	t.Run("existing detail", func(t *testing.T) {
		orig := entities.NewErrorDetail("executor", "saturated")
		assert.Same(t, orig, ToErrorDetail(orig))
	})

	t.Run("generic error", func(t *testing.T) {
		detail := ToErrorDetail(errors.New("plain"))
		assert.Equal(t, "internal", detail.Type)
		assert.Equal(t, "plain", detail.Message)
	})
}
