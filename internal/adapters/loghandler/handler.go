// Package loghandler provides the supervisor's slog handlers: a compact,
// optionally colored console format and a fan-out to several sinks.
package loghandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorCyan    = "\033[36m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBoldRed = "\033[1;31m"

	redacted = "***"
)

// DateTimeLayout suits log files, which outlive a single day when a server
// runs for a long time.
const DateTimeLayout = "2006-01-02 15:04:05"

// Options configures the Handler.
type Options struct {
	Level    slog.Leveler
	UseColor bool
	// TimeLayout formats the record time. Empty means HH:MM:SS.
	TimeLayout string
	// Redact lists attribute keys whose values are never written, matched
	// case-insensitively against the last key segment.
	Redact []string
}

type levelStyle struct {
	label string
	color string
}

// Handler is a compact slog.Handler writing `time LVL msg key=value` lines.
type Handler struct {
	w       io.Writer
	opts    Options
	redact  map[string]struct{}
	mu      *sync.Mutex
	prefix  []byte
	groups  string
	bufPool *sync.Pool
}

// NewHandler creates a new Handler writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{
		w:      w,
		mu:     &sync.Mutex{},
		redact: map[string]struct{}{},
		bufPool: &sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	for _, key := range h.opts.Redact {
		h.redact[strings.ToLower(key)] = struct{}{}
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes the record as one line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.bufPool.Put(buf)

	h.paint(buf, colorDim, func() { h.writeTime(buf, r.Time) })
	buf.WriteByte(' ')
	style := styleFor(r.Level)
	h.paint(buf, style.color, func() { buf.WriteString(style.label) })
	if r.Message != "" {
		buf.WriteByte(' ')
		buf.WriteString(r.Message)
	}

	buf.Write(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, h.groups, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a Handler that writes attrs on every record. They are
// formatted once, here.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b bytes.Buffer
	for _, a := range attrs {
		h.appendAttr(&b, h.groups, a)
	}
	h2 := h.clone()
	h2.prefix = append(h2.prefix, b.Bytes()...)
	return h2
}

// WithGroup returns a Handler that qualifies later keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = h.groups + name + "."
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		w:       h.w,
		opts:    h.opts,
		redact:  h.redact,
		mu:      h.mu,
		prefix:  append([]byte(nil), h.prefix...),
		groups:  h.groups,
		bufPool: h.bufPool,
	}
}

func (h *Handler) paint(buf *bytes.Buffer, color string, write func()) {
	if !h.opts.UseColor {
		write()
		return
	}
	buf.WriteString(color)
	write()
	buf.WriteString(colorReset)
}

func (h *Handler) writeTime(buf *bytes.Buffer, t time.Time) {
	if h.opts.TimeLayout != "" {
		buf.WriteString(t.Format(h.opts.TimeLayout))
		return
	}
	hour, minute, sec := t.Clock()
	writePad2(buf, hour)
	buf.WriteByte(':')
	writePad2(buf, minute)
	buf.WriteByte(':')
	writePad2(buf, sec)
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{"ERR", colorBoldRed}
	case level >= slog.LevelWarn:
		return levelStyle{"WRN", colorYellow}
	case level >= slog.LevelInfo:
		return levelStyle{"INF", colorGreen}
	default:
		return levelStyle{"DBG", colorCyan}
	}
}

// appendAttr writes " group.key=value". Group values are flattened into
// dotted keys.
func (h *Handler) appendAttr(buf *bytes.Buffer, groups string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		nested := groups
		if a.Key != "" {
			nested += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, nested, ga)
		}
		return
	}

	buf.WriteByte(' ')
	h.paint(buf, colorDim, func() {
		buf.WriteString(groups)
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		if _, secret := h.redact[strings.ToLower(a.Key)]; secret {
			buf.WriteString(redacted)
			return
		}
		writeValue(buf, a.Value)
	})
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindDuration:
		s = v.Duration().String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = fmt.Sprint(v.Any())
	}
	if needsQuoting(s) {
		fmt.Fprintf(buf, "%q", s)
		return
	}
	buf.WriteString(s)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}

func writePad2(buf *bytes.Buffer, n int) {
	if n < 10 {
		buf.WriteByte('0')
	}
	fmt.Fprintf(buf, "%d", n)
}

var _ slog.Handler = (*Handler)(nil)
