package host

import (
	"fmt"
	"plugin"

	"github.com/openentry/entry-extension/abi"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// Lookuper is a source of exported symbols. *plugin.Plugin satisfies it.
type Lookuper interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// Loader resolves extension entry points.
type Loader struct {
	config loaderConfig
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{config: cfg}
}

// Open loads the plugin artifact at path and resolves its entry points.
func (l *Loader) Open(path string) (*Extension, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extension %s: %w", path, err)
	}
	ext, err := l.Resolve(p)
	if err != nil {
		return nil, fmt.Errorf("failed to load extension %s: %w", path, err)
	}
	l.config.logger.Info("extension loaded", "path", path)
	return ext, nil
}

// Resolve looks up the four entry points and the optional ABI version in src.
func (l *Loader) Resolve(src Lookuper) (*Extension, error) {
	if err := l.checkVersion(src); err != nil {
		return nil, err
	}

	var entry abi.Entrypoints
	if err := lookup(src, abi.SymbolInit, &entry.Init); err != nil {
		return nil, err
	}
	if err := lookup(src, abi.SymbolEventRecv, &entry.EventRecv); err != nil {
		return nil, err
	}
	if err := lookup(src, abi.SymbolInterrupt, &entry.Interrupt); err != nil {
		return nil, err
	}
	if err := lookup(src, abi.SymbolFunctionCall, &entry.FunctionCall); err != nil {
		return nil, err
	}

	return FromEntrypoints(entry)
}

func (l *Loader) checkVersion(src Lookuper) error {
	sym, err := src.Lookup(abi.SymbolABIVersion)
	if err != nil {
		if l.config.strictVersion {
			return &sdkerrors.SymbolError{Symbol: abi.SymbolABIVersion, Err: err}
		}
		return nil
	}

	v, ok := sym.(*uint32)
	if !ok {
		return &sdkerrors.SymbolError{Symbol: abi.SymbolABIVersion, Got: fmt.Sprintf("%T", sym)}
	}
	if *v != abi.Version {
		return &sdkerrors.ContractError{
			Operation: "load",
			Reason:    fmt.Sprintf("extension built for ABI %d, host speaks %d", *v, abi.Version),
		}
	}
	return nil
}

func lookup[T any](src Lookuper, name string, dst *T) error {
	sym, err := src.Lookup(name)
	if err != nil {
		return &sdkerrors.SymbolError{Symbol: name, Err: err}
	}
	fn, ok := sym.(T)
	if !ok {
		return &sdkerrors.SymbolError{Symbol: name, Got: fmt.Sprintf("%T", sym)}
	}
	*dst = fn
	return nil
}
