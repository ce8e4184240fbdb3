package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextHandler writes one line per record in the form
// "<func>: <message> key=value ...". Records below Info carry no level
// marker; warnings and errors get a level attribute.
type TextHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler

	unit   string
	prefix string
	attrs  []byte
}

// NewTextHandler returns a TextHandler writing records at or above level.
func NewTextHandler(w io.Writer, level slog.Leveler) *TextHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &TextHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	unit := h.unit
	var tail bytes.Buffer
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == FuncKey {
			unit = a.Value.String()
			return true
		}
		appendAttr(&tail, h.prefix, a)
		return true
	})
	if unit == "" {
		unit = "main"
	}

	var buf bytes.Buffer
	buf.WriteString(unit)
	buf.WriteString(": ")
	buf.WriteString(r.Message)
	if r.Level >= slog.LevelWarn {
		buf.WriteString(" level=")
		buf.WriteString(r.Level.String())
	}
	buf.Write(h.attrs)
	buf.Write(tail.Bytes())
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	dup := h.clone()
	var buf bytes.Buffer
	for _, a := range attrs {
		if dup.prefix == "" && a.Key == FuncKey {
			dup.unit = a.Value.String()
			continue
		}
		appendAttr(&buf, dup.prefix, a)
	}
	dup.attrs = append(dup.attrs, buf.Bytes()...)
	return dup
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	dup := h.clone()
	dup.prefix = joinKey(dup.prefix, name)
	return dup
}

func (h *TextHandler) clone() *TextHandler {
	dup := *h
	dup.attrs = append([]byte(nil), h.attrs...)
	return &dup
}

func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}
		nested := prefix
		if a.Key != "" {
			nested = joinKey(prefix, a.Key)
		}
		for _, ga := range group {
			appendAttr(buf, nested, ga)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(joinKey(prefix, a.Key))
	buf.WriteByte('=')
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
