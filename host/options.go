package host

import (
	"log/slog"
	"sync"
)

// Option configures an Executor.
type Option func(*Executor)

// WithDropAfterOpcode sets the drop flag passed to handlers. When true
// (the default) the executor asks handlers to release the lock before the
// next instruction; when false it keeps holding it until the block ends.
func WithDropAfterOpcode(drop bool) Option {
	return func(e *Executor) {
		e.drop = drop
	}
}

// WithLocker sets the executor mutex. Defaults to a new sync.Mutex.
func WithLocker(l sync.Locker) Option {
	return func(e *Executor) {
		e.locker = l
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	logger        *slog.Logger
	strictVersion bool
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		logger: slog.Default(),
	}
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithStrictVersion makes a missing ABIVersion symbol a load error.
// Artifacts that do export it are always checked.
func WithStrictVersion(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictVersion = enabled
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		c.logger = l
	}
}
