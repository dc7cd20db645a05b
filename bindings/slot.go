package bindings

import (
	"context"
	"fmt"
	"reflect"

	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// DataSlot is the per-extension typed cell. It stores one value of a type
// chosen at runtime; readers name the type they expect through Get.
//
// Access is serialized. The extension must read with the type it last wrote;
// a mismatch is a contract violation reported as *errors.SlotTypeError.
type DataSlot struct {
	sem   chan struct{}
	value any
	hook  Hook
	id    uint32
}

func newDataSlot(id uint32, hook Hook) *DataSlot {
	return &DataSlot{
		sem:  make(chan struct{}, 1),
		hook: hook,
		id:   id,
	}
}

func (s *DataSlot) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DataSlot) release() {
	<-s.sem
}

// Set replaces the slot's value. It waits for concurrent accessors unless
// ctx is done first.
func (s *DataSlot) Set(ctx context.Context, v any) error {
	if v == nil {
		return &sdkerrors.ContractError{Operation: "extension_data.set", Reason: "nil value"}
	}
	s.hook.record(Access{Op: OpSlotSet, ExtensionID: s.id})
	if err := s.acquire(ctx); err != nil {
		return fmt.Errorf("extension_data.set: %w", err)
	}
	defer s.release()

	s.value = v
	return nil
}

// Clear empties the slot.
func (s *DataSlot) Clear(ctx context.Context) error {
	s.hook.record(Access{Op: OpSlotClear, ExtensionID: s.id})
	if err := s.acquire(ctx); err != nil {
		return fmt.Errorf("extension_data.clear: %w", err)
	}
	defer s.release()

	s.value = nil
	return nil
}

// Get reads the slot as T.
func Get[T any](ctx context.Context, s *DataSlot) (T, error) {
	var zero T
	s.hook.record(Access{Op: OpSlotGet, ExtensionID: s.id})
	if err := s.acquire(ctx); err != nil {
		return zero, fmt.Errorf("extension_data.get: %w", err)
	}
	defer s.release()

	if s.value == nil {
		return zero, sdkerrors.ErrSlotEmpty
	}
	v, ok := s.value.(T)
	if !ok {
		return zero, &sdkerrors.SlotTypeError{
			Want: reflect.TypeOf((*T)(nil)).Elem().String(),
			Have: fmt.Sprintf("%T", s.value),
		}
	}
	return v, nil
}
