package logging

import (
	"context"
	"log/slog"
)

// teeHandler writes every record to primary and mirrors it to echoes. Only the
// primary handler's errors are reported; a broken terminal must not fail the
// log file write.
type teeHandler struct {
	primary slog.Handler
	echoes  []slog.Handler
}

func newTeeHandler(primary slog.Handler, echoes ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(echoes))
	for _, h := range echoes {
		if h != nil {
			kept = append(kept, h)
		}
	}
	if primary == nil {
		if len(kept) == 0 {
			return NoopHandler{}
		}
		primary, kept = kept[0], kept[1:]
	}
	if len(kept) == 0 {
		return primary
	}
	return &teeHandler{primary: primary, echoes: kept}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.primary.Enabled(ctx, level) {
		return true
	}
	for _, echo := range h.echoes {
		if echo.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, echo := range h.echoes {
		if echo.Enabled(ctx, record.Level) {
			_ = echo.Handle(ctx, record.Clone())
		}
	}
	if !h.primary.Enabled(ctx, record.Level) {
		return nil
	}
	return h.primary.Handle(ctx, record)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	echoes := make([]slog.Handler, len(h.echoes))
	for i, echo := range h.echoes {
		echoes[i] = fn(echo)
	}
	return &teeHandler{primary: fn(h.primary), echoes: echoes}
}

// TeeLogger keeps base as the primary destination and mirrors records into
// echoes.
func TeeLogger(base *slog.Logger, echoes ...slog.Handler) *slog.Logger {
	var primary slog.Handler
	if base != nil {
		primary = base.Handler()
	}
	return slog.New(newTeeHandler(primary, echoes...))
}

// minLevelHandler drops records below min before they reach next. The stderr
// echo uses it so only warnings and errors reach the terminal.
type minLevelHandler struct {
	next slog.Handler
	min  slog.Level
}

func newMinLevelHandler(next slog.Handler, min slog.Level) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &minLevelHandler{next: next, min: min}
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), min: h.min}
}
