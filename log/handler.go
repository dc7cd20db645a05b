// Package log provides structured logging (slog) for OpenEntry extensions.
//
// Records are written as one JSON object per line and carry the extension's
// name and ID, so the host can interleave output from several extensions.
package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
)

// Handler implements slog.Handler, writing JSON lines tagged with the
// extension's identity.
type Handler struct {
	opts   handlerConfig
	mu     *sync.Mutex
	attrs  []AttrWire
	groups []string
}

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	w           io.Writer
	level       slog.Leveler
	name        string
	extensionID uint32
	addSource   bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		w:     os.Stderr,
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithWriter sets the destination. Defaults to os.Stderr.
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		c.w = w
	}
}

// WithExtension tags every record with the extension's name and ID.
func WithExtension(name string, id uint32) HandlerOption {
	return func(c *handlerConfig) {
		c.name = name
		c.extensionID = id
	}
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{opts: cfg, mu: &sync.Mutex{}}
}

// New returns a logger backed by a Handler.
func New(opts ...HandlerOption) *slog.Logger {
	return slog.New(NewHandler(opts...))
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle writes record as a single JSON line.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	msg := MessageWire{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Attrs:     append([]AttrWire(nil), h.attrs...),
	}
	if h.opts.name != "" || h.opts.extensionID != 0 {
		msg.Extension = &ExtensionWire{Name: h.opts.name, ID: h.opts.extensionID}
	}
	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		msg.Source = fmt.Sprintf("%s:%d", f.File, f.Line)
	}

	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = append(msg.Attrs, flattenAttr(h.groups, attr)...)
		return true
	})

	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.opts.w.Write(line)
	return err
}

// WithAttrs returns a new Handler that includes the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = append(next.attrs, flattenAttr(h.groups, attr)...)
	}
	return next
}

// WithGroup returns a new Handler that qualifies later attributes with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		opts:   h.opts,
		mu:     h.mu,
		attrs:  append([]AttrWire(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}
