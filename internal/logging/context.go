package logging

import (
	"context"
	"log/slog"
)

// Scope identifies what a log line belongs to. Empty fields are omitted.
type Scope struct {
	Command string // CLI command or MCP tool
	Run     string // generate/check run ID
	File    string // workflow file name
}

type scopeKey struct{}

// Into returns a context whose scope is the current one with the
// non-empty fields of s laid over it.
func Into(ctx context.Context, s Scope) context.Context {
	cur := From(ctx)
	if s.Command != "" {
		cur.Command = s.Command
	}
	if s.Run != "" {
		cur.Run = s.Run
	}
	if s.File != "" {
		cur.File = s.File
	}
	return context.WithValue(ctx, scopeKey{}, cur)
}

// From returns the scope carried by ctx.
func From(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

func (s Scope) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 3)
	for _, kv := range [...]struct{ key, val string }{
		{"command", s.Command},
		{"run_id", s.Run},
		{"file", s.File},
	} {
		if kv.val != "" {
			out = append(out, slog.String(kv.key, kv.val))
		}
	}
	return out
}

// For returns logger with the scope of ctx attached, for loggers not
// built by New.
func For(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := From(ctx).attrs()
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}

// scopeHandler adds the context scope to every record.
type scopeHandler struct {
	slog.Handler
}

// NewHandler wraps inner so records logged with a context carry its scope.
func NewHandler(inner slog.Handler) slog.Handler {
	return scopeHandler{inner}
}

func (h scopeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(From(ctx).attrs()...)
	return h.Handler.Handle(ctx, r)
}

func (h scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scopeHandler{h.Handler.WithAttrs(attrs)}
}

func (h scopeHandler) WithGroup(name string) slog.Handler {
	return scopeHandler{h.Handler.WithGroup(name)}
}
