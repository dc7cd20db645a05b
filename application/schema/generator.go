// Package schema generates JSON Schemas for the payloads extensions exchange.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// Generate reflects v's type into a JSON Schema (Draft 2020-12). Struct
// definitions are expanded inline so the result is self-contained and can
// be published alongside extension metadata.
func Generate(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, &sdkerrors.SchemaError{Err: fmt.Errorf("nil value")}
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, &sdkerrors.SchemaError{Type: t.String(), Err: fmt.Errorf("type cannot be encoded as JSON")}
	}

	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.ReflectFromType(t)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &sdkerrors.SchemaError{Type: t.String(), Err: err}
	}
	return data, nil
}
