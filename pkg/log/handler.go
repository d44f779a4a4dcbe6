package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler decorates a slog handler so that records carrying a wrapped
// error gain a stacktrace attribute. Errors built by pkg/errors carry their
// stack as cockroachdb safe details; plain errors pass through unchanged.
type ErrFmtHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler with stacktrace extraction.
func WrapByErrFmtHandler(next slog.Handler) slog.Handler {
	return &ErrFmtHandler{next: next}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.next.Enabled(ctx, l)
}

// Handle scans the record's attributes for the first error value and, when
// the error carries a stack, appends it under StacktraceAttrKey.
func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var stacktrace string
	r.Attrs(func(attr slog.Attr) bool {
		err, ok := attr.Value.Any().(error)
		if !ok {
			return true
		}
		if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
			stacktrace = details[0]
		}
		return false
	})
	if stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	return eh.next.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{next: eh.next.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{next: eh.next.WithGroup(g)}
}
