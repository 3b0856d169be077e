package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// shortIDLength trims correlation IDs in console output; JSON keeps them whole.
const shortIDLength = 8

// consoleHandler renders one human-readable line per record:
//
//	<ts> <LEVEL> <component>[cargo=<id> <operation>]: <msg> [file:line] k=v ... cid=<id>
//
// Component, cargo and operation fields move into the prefix; the correlation
// ID is always printed last.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

type consoleLine struct {
	component   string
	cargoID     string
	operation   string
	correlation string
	fields      []consoleField
}

type consoleField struct {
	key   string
	value slog.Value
}

func (l *consoleLine) add(key string, value slog.Value) {
	switch key {
	case FieldComponent:
		if l.component == "" {
			l.component = plainValue(value)
		}
	case FieldCargoID:
		l.cargoID = plainValue(value)
	case FieldOperation:
		l.operation = plainValue(value)
	case FieldCorrelationID:
		l.correlation = plainValue(value)
	default:
		l.fields = append(l.fields, consoleField{key: key, value: value})
	}
}

func (l *consoleLine) collect(groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups = append(groups[:len(groups):len(groups)], attr.Key)
		}
		for _, child := range attr.Value.Group() {
			l.collect(groups, child)
		}
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(append(groups[:len(groups):len(groups)], key), ".")
	}
	l.add(key, attr.Value)
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	var line consoleLine
	for _, attr := range h.attrs {
		line.collect(nil, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.collect(h.groups, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	b.WriteByte(' ')
	if prefix := line.prefix(); prefix != "" {
		b.WriteString(prefix)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, field := range line.fields {
		if field.key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(field.key)
		b.WriteByte('=')
		b.WriteString(quotedValue(field.value))
	}
	if id := line.correlation; id != "" {
		if len(id) > shortIDLength {
			id = id[:shortIDLength]
		}
		b.WriteString(" cid=")
		b.WriteString(id)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (l consoleLine) prefix() string {
	var scope []string
	if l.cargoID != "" {
		scope = append(scope, "cargo="+l.cargoID)
	}
	if l.operation != "" {
		scope = append(scope, l.operation)
	}
	if len(scope) == 0 {
		return l.component
	}
	return l.component + "[" + strings.Join(scope, " ") + "]"
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.grouped(attrs)...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// grouped nests attrs under the handler's open groups so they flatten with
// the same dotted keys as record attributes.
func (h *consoleHandler) grouped(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	for i := len(h.groups) - 1; i >= 0; i-- {
		out = []any{slog.Group(h.groups[i], out...)}
	}
	return []slog.Attr{out[0].(slog.Attr)}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	default:
		return v.String()
	}
}

func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
