package bindings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDataSlot_ContextCancelled(t *testing.T) {
	slot := newDataSlot(1, nil)
	slot.sem <- struct{}{} // another accessor holds the slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Get[int32](ctx, slot)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, slot.Set(ctx, int32(1)), context.DeadlineExceeded)

	<-slot.sem
	assert.NoError(t, slot.Set(context.Background(), int32(1)))
}
