package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/trace"
)

// SetupLogger installs the default logger. Report rows own stdout, so w is
// normally os.Stderr. Any format other than "json" gets the line handler.
func SetupLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewPrettyHandler(w, opts)
	}
	logger := slog.New(&TraceHandler{Handler: handler})
	slog.SetDefault(logger)
	return logger
}

// TraceHandler adds trace_id and span_id from the record's context, so
// lines logged inside a benchmark can be matched to its span.
type TraceHandler struct {
	slog.Handler
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// benchmarkKey is lifted out of the attributes into its own column.
const benchmarkKey = "benchmark"

// PrettyHandler writes "time LVL [benchmark] message key=value..." lines.
// The level tag is colored when w is a terminal.
type PrettyHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	color     bool
	prefix    string
	benchmark string
	attrs     string
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	if f, ok := w.(*os.File); ok {
		h.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level, h.color))

	benchmark := h.benchmark
	var attrs strings.Builder
	attrs.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == benchmarkKey {
			benchmark = a.Value.String()
		} else {
			writeAttr(&attrs, h.prefix, a)
		}
		return true
	})
	if benchmark != "" {
		b.WriteString(" [" + benchmark + "]")
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(attrs.String())
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == benchmarkKey {
			c.benchmark = a.Value.String()
			continue
		}
		writeAttr(&b, h.prefix, a)
	}
	c.attrs = b.String()
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	b.WriteString(" " + prefix + a.Key + "=" + a.Value.String())
}

var levelColors = map[string]string{
	"DBG": "\033[90m",
	"INF": "\033[36m",
	"WRN": "\033[33m",
	"ERR": "\033[31m",
}

const colorReset = "\033[0m"

func levelTag(l slog.Level, color bool) string {
	tag := "DBG"
	switch {
	case l >= slog.LevelError:
		tag = "ERR"
	case l >= slog.LevelWarn:
		tag = "WRN"
	case l >= slog.LevelInfo:
		tag = "INF"
	}
	if !color {
		return tag
	}
	return levelColors[tag] + tag + colorReset
}
