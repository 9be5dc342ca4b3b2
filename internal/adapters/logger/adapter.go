// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a Logger to the application's logging interface and
// attaches a fixed set of base fields (such as the application being released)
// to every entry.
type ZapAdapter struct {
	log  Logger
	base map[string]any
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// With returns an adapter that adds fields to every entry.
// Per-call fields win over base fields with the same key.
func (a *ZapAdapter) With(fields map[string]any) *ZapAdapter {
	return &ZapAdapter{log: a.log, base: merge(a.base, fields)}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, merge(a.base, fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, merge(a.base, fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, merge(a.base, fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, merge(a.base, fields))
}

// merge returns fields unchanged when there is nothing to add, otherwise a new map.
func merge(base, fields map[string]any) map[string]any {
	if len(base) == 0 {
		return fields
	}
	out := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
