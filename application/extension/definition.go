package extension

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/application/schema"
	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// Def defines extension identity and lifecycle hooks.
type Def struct {
	// Message is a value of the payload type peers send in
	// EventExtensionMessage events. Optional.
	Message any

	// OnInit runs after bindings registration, inside the init entry point.
	// Returning an error aborts the process.
	OnInit InitHook

	// OnEvent receives every event delivered after initialization.
	OnEvent EventHook

	Name        string `validate:"required,max=64"`
	Version     string `validate:"required,semver"`
	Description string `validate:"max=512"`
}

// Opcode declares one custom opcode.
type Opcode struct {
	Handler     HandlerFunc `validate:"required"`
	Name        string      `validate:"required,max=64"`
	Description string
	ID          uint32
}

// Definition holds a validated Def and its opcode tables.
type Definition struct {
	messageType   reflect.Type
	def           Def
	messageSchema json.RawMessage
	tables        map[entities.OpcodeKind]map[uint32]*opcodeEntry
	mu            sync.RWMutex
}

type opcodeEntry struct {
	handler HandlerFunc
	info    entities.OpcodeInfo
	calls   atomic.Uint64
}

// DefineExtension validates def and returns its Definition.
// Call it once at package level; an invalid definition panics.
func DefineExtension(def Def) *Definition {
	d, err := NewDefinition(def)
	if err != nil {
		panic("failed to define extension: " + err.Error())
	}
	return d
}

// NewDefinition validates def and returns its Definition.
func NewDefinition(def Def) (*Definition, error) {
	if err := validateStruct(def); err != nil {
		return nil, err
	}

	d := &Definition{
		def: def,
		tables: map[entities.OpcodeKind]map[uint32]*opcodeEntry{
			entities.OpcodeInterrupt: {},
			entities.OpcodeFunction:  {},
		},
	}

	if def.Message != nil {
		s, err := schema.Generate(def.Message)
		if err != nil {
			return nil, fmt.Errorf("message schema: %w", err)
		}
		d.messageSchema = s
		d.messageType = reflect.TypeOf(def.Message)
	}

	return d, nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		return &sdkerrors.DefinitionError{Field: verrs[0].Field(), Err: err}
	}
	return &sdkerrors.DefinitionError{Err: err}
}

// Name returns the extension name.
func (d *Definition) Name() string {
	return d.def.Name
}

// RegisterInterrupt adds an interrupt opcode.
func (d *Definition) RegisterInterrupt(op Opcode) error {
	return d.register(entities.OpcodeInterrupt, op)
}

// RegisterFunction adds a function-call opcode.
func (d *Definition) RegisterFunction(op Opcode) error {
	return d.register(entities.OpcodeFunction, op)
}

// MustRegisterInterrupt registers an interrupt opcode or panics.
// Use this in init() functions.
func (d *Definition) MustRegisterInterrupt(op Opcode) {
	if err := d.RegisterInterrupt(op); err != nil {
		panic(fmt.Sprintf("failed to register interrupt: %v", err))
	}
}

// MustRegisterFunction registers a function-call opcode or panics.
// Use this in init() functions.
func (d *Definition) MustRegisterFunction(op Opcode) {
	if err := d.RegisterFunction(op); err != nil {
		panic(fmt.Sprintf("failed to register function: %v", err))
	}
}

func (d *Definition) register(kind entities.OpcodeKind, op Opcode) error {
	if err := validateStruct(op); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	table := d.tables[kind]
	if existing, ok := table[op.ID]; ok {
		return &sdkerrors.DefinitionError{
			Field: "ID",
			Err:   fmt.Errorf("%s %d already registered as %q", kind, op.ID, existing.info.Name),
		}
	}
	table[op.ID] = &opcodeEntry{
		handler: op.Handler,
		info: entities.OpcodeInfo{
			Name:        op.Name,
			Description: op.Description,
			ID:          op.ID,
			Kind:        kind,
		},
	}
	return nil
}

func (d *Definition) lookup(kind entities.OpcodeKind, id uint32) (*opcodeEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.tables[kind][id]
	return entry, ok
}

// Describe returns the extension's metadata with opcodes sorted by ID.
func (d *Definition) Describe() entities.Metadata {
	return entities.Metadata{
		Name:          d.def.Name,
		Version:       d.def.Version,
		Description:   d.def.Description,
		ABIVersion:    abi.Version,
		Interrupts:    d.opcodes(entities.OpcodeInterrupt),
		Functions:     d.opcodes(entities.OpcodeFunction),
		MessageSchema: d.messageSchema,
	}
}

func (d *Definition) opcodes(kind entities.OpcodeKind) []entities.OpcodeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	table := d.tables[kind]
	if len(table) == 0 {
		return nil
	}
	out := make([]entities.OpcodeInfo, 0, len(table))
	for _, entry := range table {
		out = append(out, entry.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// decodeMessage unmarshals payload into a new value of the declared message
// type.
func (d *Definition) decodeMessage(payload []byte) (any, error) {
	ptr := reflect.New(d.messageType)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.messageType, err)
	}
	return ptr.Elem().Interface(), nil
}
