// Package ctxlog passes a slog.Logger through context.Context.
package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var loggerKey = key{}

var ErrUnknownFormat = errors.New("unknown log format")

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If no logger is
// found, it returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}

// New builds a logger writing to wrt. format is "text" or "json"; level is
// any level slog understands ("debug", "info", "warn", "error").
func New(wrt io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level

	if level != "" {
		err := lvl.UnmarshalText([]byte(level))
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(wrt, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(wrt, opts)), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}
