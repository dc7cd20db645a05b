package extension

import (
	"log/slog"

	"github.com/openentry/entry-extension/bindings"
)

// Option configures an Extension.
type Option func(*Extension)

// WithRegistry sets the bindings registry. Defaults to a registry owned by
// the extension.
func WithRegistry(r *bindings.Registry) Option {
	return func(e *Extension) {
		e.registry = r
	}
}

// WithLogger sets the logger. By default the extension logs JSON lines
// tagged with its name and ID through log.New once initialized.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) {
		e.base = l
	}
}
