package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is the per-page trace level, below slog.LevelDebug. Trace
// output scales with the size of the capture and is only useful when
// following the decoder word by word.
const LevelTrace = slog.Level(-8)

// Verbosity levels accepted on the command line, mapped to slog levels.
// The scale is cumulative: each step adds detail to the previous one.
const (
	// VerbosityError logs only errors.
	VerbosityError = 0

	// VerbosityWarn adds warnings (the default).
	VerbosityWarn = 1

	// VerbosityInfo adds run lifecycle notices.
	VerbosityInfo = 2

	// VerbosityDebug adds per-page decoding detail.
	VerbosityDebug = 3

	// VerbosityTrace adds per-word detail.
	VerbosityTrace = 4
)

// Level maps a numeric verbosity to its slog level. Out-of-range values
// clamp to the nearest end of the scale.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= VerbosityError:
		return slog.LevelError
	case verbosity == VerbosityWarn:
		return slog.LevelWarn
	case verbosity == VerbosityInfo:
		return slog.LevelInfo
	case verbosity == VerbosityDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// OffsetHandler wraps an slog.Handler to render stream offsets in hex.
// It intercepts log records and rewrites integer attributes whose key
// names an offset before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites keep logging plain integers; formatting stays in one place
type OffsetHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler
}

// NewOffsetHandler creates a new OffsetHandler wrapping the given handler.
// If handler is nil, the returned OffsetHandler will use slog.Default().Handler().
func NewOffsetHandler(handler slog.Handler) *OffsetHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &OffsetHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *OffsetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's offset attributes and passes it to the
// underlying handler.
func (h *OffsetHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Offset attributes are rewritten before being added.
func (h *OffsetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &OffsetHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *OffsetHandler) WithGroup(name string) slog.Handler {
	return &OffsetHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *OffsetHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	if !isOffsetKey(a.Key) {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindInt64:
		return slog.String(a.Key, fmt.Sprintf("0x%08X", uint64(a.Value.Int64())))
	case slog.KindUint64:
		return slog.String(a.Key, fmt.Sprintf("0x%08X", a.Value.Uint64()))
	default:
		return a
	}
}

// isOffsetKey reports whether the attribute key names a stream offset.
func isOffsetKey(key string) bool {
	return key == "offset" || strings.HasSuffix(key, "_offset")
}

// NewLogger creates the application logger writing to w at the given
// verbosity. The returned logger renders offsets in hex and can be used
// with slog.SetDefault() or passed to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbosity int) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: Level(verbosity),
	}
	return slog.New(NewOffsetHandler(slog.NewTextHandler(w, opts)))
}
