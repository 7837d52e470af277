// Package log wires log/slog with a handler that picks up attributes stored
// in a context, so per-scan identifiers follow every record without threading
// a logger around.
package log

import (
	"context"
	"log/slog"
	"os"
)

type attrsKeyT struct{}

var attrsKey attrsKeyT

// Handler decorates another slog.Handler with context stored attributes.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(attrsKey).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs returns a context carrying attrs for every record logged
// through a Handler under it.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(attrsKey).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, attrsKey, merged)
}

// New builds the process logger: JSON records on stderr, debug level when
// verbose is set.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(Handler{Handler: base})
}
