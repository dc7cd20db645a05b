// Package errors provides domain-specific error types for the extension SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/openentry/entry-extension/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

var (
	// ErrNotInitialized is returned when the bindings layer is used before
	// the extension's init entry point registered the runtime.
	ErrNotInitialized = stdErrors.New("extension bindings not initialized")

	// ErrAlreadyInitialized is returned by a second registration attempt.
	ErrAlreadyInitialized = stdErrors.New("extension bindings already initialized")

	// ErrSlotEmpty is returned when reading a data slot nothing was written to.
	ErrSlotEmpty = stdErrors.New("extension data slot is empty")

	// ErrRuntimeClosed is returned when spawning onto a closed runtime.
	ErrRuntimeClosed = stdErrors.New("runtime closed")

	// ErrExecutorSaturated is returned when the task executor is at its limit.
	ErrExecutorSaturated = stdErrors.New("task executor saturated")
)

// DetailedError is implemented by error types that can describe themselves
// as a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// ContractError reports a violation of the host/extension contract, such as
// returning the executor lock in the wrong state.
type ContractError struct {
	Err       error
	Operation string
	Reason    string
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("contract violation in %s: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("contract violation in %s: %s", e.Operation, e.Reason)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ContractError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "contract", Code: e.Operation}
}

// SlotTypeError is returned when a data slot is read with a type other than
// the one last written.
type SlotTypeError struct {
	Want string
	Have string
}

func (e *SlotTypeError) Error() string {
	return fmt.Sprintf("extension data slot holds %s, read as %s", e.Have, e.Want)
}

// ToErrorDetail implements DetailedError.
func (e *SlotTypeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "slot",
		Code:    "type_mismatch",
		Details: map[string]any{"want": e.Want, "have": e.Have},
	}
}

// SymbolError reports a missing or mistyped entry point in a loaded artifact.
type SymbolError struct {
	Err    error
	Symbol string
	Got    string
}

func (e *SymbolError) Error() string {
	if e.Got != "" {
		return fmt.Sprintf("symbol %s has type %s", e.Symbol, e.Got)
	}
	return fmt.Sprintf("symbol %s: %v", e.Symbol, e.Err)
}

func (e *SymbolError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SymbolError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "symbol", Code: e.Symbol}
}

// DefinitionError represents an invalid extension or opcode definition.
type DefinitionError struct {
	Err   error
	Field string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("definition validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("definition validation failed: %v", e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DefinitionError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: e.Field}
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "schema"}
}

// PanicError wraps a value recovered from a panicking handler or task.
type PanicError struct {
	Value any
	Where string
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Where, e.Value)
}

// ToErrorDetail implements DetailedError.
func (e *PanicError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("panic", e.Error()).WithCode(e.Where).WithStack(e.Stack)
}
