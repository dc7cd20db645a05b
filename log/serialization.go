package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// MessageWire is the JSON form of one log record.
type MessageWire struct {
	Timestamp time.Time      `json:"timestamp"`
	Extension *ExtensionWire `json:"extension,omitempty"`
	Attrs     []AttrWire     `json:"attrs,omitempty"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source,omitempty"`
}

// ExtensionWire identifies the extension that emitted a record.
type ExtensionWire struct {
	Name string `json:"name,omitempty"`
	ID   uint32 `json:"id"`
}

// AttrWire represents a single slog attribute.
type AttrWire struct {
	Detail *entities.ErrorDetail `json:"detail,omitempty"`
	Key    string                `json:"key"`
	Type   string                `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value  string                `json:"value"` // String representation of the value
}

// flattenAttr converts attr to wire form, expanding groups into dotted keys.
func flattenAttr(groups []string, attr slog.Attr) []AttrWire {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return nil
	}

	if attr.Value.Kind() == slog.KindGroup {
		prefix := groups
		if attr.Key != "" {
			prefix = append(append([]string(nil), groups...), attr.Key)
		}
		var out []AttrWire
		for _, member := range attr.Value.Group() {
			out = append(out, flattenAttr(prefix, member)...)
		}
		return out
	}

	wire := toAttrWire(attr)
	if len(groups) > 0 {
		wire.Key = strings.Join(groups, ".") + "." + wire.Key
	}
	return []AttrWire{wire}
}

// toAttrWire converts a resolved, non-group slog.Attr to AttrWire.
func toAttrWire(attr slog.Attr) AttrWire {
	wire := AttrWire{
		Key: attr.Key,
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = attr.Value.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Int64())
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Uint64())
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = fmt.Sprintf("%t", attr.Value.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", attr.Value.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = attr.Value.Duration().String()
	default:
		v := attr.Value.Any()
		switch val := v.(type) {
		case nil:
			wire.Type = "any"
			wire.Value = "<nil>"
		case error:
			wire.Type = "error"
			wire.Value = val.Error()
			if d := sdkerrors.ToErrorDetail(val); d.Type != "internal" {
				wire.Detail = d
			}
		case fmt.Stringer:
			wire.Type = "string"
			wire.Value = val.String()
		default:
			if data, err := json.Marshal(v); err == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", v)
			}
		}
	}
	return wire
}
