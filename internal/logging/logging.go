// Package logging configures the process-wide slog logger and carries a
// request-scoped logger through context.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

type ctxKey struct{}

// Init installs the default logger. Development gets human-readable text
// with source locations; everything else gets JSON with UTC timestamps.
func Init(service, level, appEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level), ReplaceAttr: utcTime}

	var h slog.Handler
	if appEnv == "development" {
		opts.AddSource = true
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", service, "env", appEnv)
	slog.SetDefault(logger)
	return logger
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Alert logs at error level with alert=true, the marker paging rules key
// on. Reserve it for states that mean the ledger code itself is wrong.
func Alert(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, append([]any{"alert", true}, args...)...)
}

// ParseLevel accepts slog level names in any case, including offsets such
// as "warn+2". Anything unrecognised falls back to info.
func ParseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}
