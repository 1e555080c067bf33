package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// stackTraceHandler decorates records that carry a wrapped error with the
// stack trace captured at the error's origin.
type stackTraceHandler struct {
	next slog.Handler
}

// WithStackTraces wraps a slog handler so that any record logged with
// ErrAttr gains a stacktrace attribute extracted from the error.
func WithStackTraces(next slog.Handler) slog.Handler {
	return &stackTraceHandler{next: next}
}

func (h *stackTraceHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *stackTraceHandler) Handle(ctx context.Context, r slog.Record) error {
	var trace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			trace = stackTraceOf(err)
		}
		return false
	})
	if trace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, trace))
	}
	return h.next.Handle(ctx, r)
}

func (h *stackTraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stackTraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *stackTraceHandler) WithGroup(g string) slog.Handler {
	return &stackTraceHandler{next: h.next.WithGroup(g)}
}

// stackTraceOf pulls the first safe detail payload, which is where
// cockroachdb/errors records the formatted stack.
func stackTraceOf(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) == 0 {
		return ""
	}
	return details[0]
}
