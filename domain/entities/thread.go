package entities

import "strconv"

// VThread identifies the virtual thread a handler runs on behalf of.
// It is only valid for the duration of the handler invocation.
type VThread struct {
	ID uint64 `json:"id"`
}

func (t VThread) String() string {
	return "vthread-" + strconv.FormatUint(t.ID, 10)
}
