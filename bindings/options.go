package bindings

import (
	"context"
	"log/slog"
)

// runtimeConfig holds configuration for a Runtime.
type runtimeConfig struct {
	ctx      context.Context
	logger   *slog.Logger
	hook     Hook
	maxTasks int
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		ctx:    context.Background(),
		logger: slog.Default(),
	}
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

// WithContext sets the parent context of spawned tasks.
func WithContext(ctx context.Context) Option {
	return func(c *runtimeConfig) {
		c.ctx = ctx
	}
}

// WithLogger sets the runtime's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *runtimeConfig) {
		c.logger = l
	}
}

// WithMaxTasks limits the number of concurrently running spawned tasks.
// Zero or negative means unlimited.
func WithMaxTasks(n int) Option {
	return func(c *runtimeConfig) {
		c.maxTasks = n
	}
}

// WithHook installs an observer for runtime traffic (spawns and data slot
// access).
func WithHook(h Hook) Option {
	return func(c *runtimeConfig) {
		c.hook = h
	}
}
