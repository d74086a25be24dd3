// Package console renders slog records as colored, single-line console output.
//
// Info lines are cyan, warnings yellow, errors red and debug lines gray.
// Colors are dropped automatically when the writer is not a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Options configures a Handler.
type Options struct {
	// Level is the minimum level emitted. Default slog.LevelInfo.
	Level slog.Leveler
	// NoColor disables styling even on a terminal.
	NoColor bool
	// Timestamps prefixes each line with the local time.
	Timestamps bool
}

type styles struct {
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	attr  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		debug: r.NewStyle().Foreground(lipgloss.Color("8")),
		info:  r.NewStyle().Foreground(lipgloss.Color("6")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		err:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		attr:  r.NewStyle().Faint(true),
	}
}

// Handler is a slog.Handler writing to a console.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   Options
	styles styles
	prefix string // preformatted attrs from WithAttrs
	group  string // dotted group prefix from WithGroup
}

// NewHandler creates a console handler writing to w.
func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{
		mu: &sync.Mutex{},
		w:  w,
	}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	h.styles = newStyles(lipgloss.NewRenderer(w))
	return h
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if h.opts.Timestamps && !r.Time.IsZero() {
		b.WriteString(r.Time.Format(time.TimeOnly))
		b.WriteByte(' ')
	}

	msgStyle := h.levelStyle(r.Level)
	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(h.render(msgStyle, "error: "+r.Message))
	case r.Level >= slog.LevelWarn:
		b.WriteString(h.render(msgStyle, "warning: "+r.Message))
	default:
		b.WriteString(h.render(msgStyle, r.Message))
	}

	var attrs strings.Builder
	attrs.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&attrs, h.group, a)
		return true
	})
	if attrs.Len() > 0 {
		b.WriteString(h.render(h.styles.attr, attrs.String()))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&b, h.group, a)
	}
	h2.prefix = b.String()
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func (h *Handler) levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return h.styles.err
	case level >= slog.LevelWarn:
		return h.styles.warn
	case level >= slog.LevelInfo:
		return h.styles.info
	default:
		return h.styles.debug
	}
}

func (h *Handler) render(s lipgloss.Style, text string) string {
	if h.opts.NoColor {
		return text
	}
	return s.Render(text)
}

func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := group
		if a.Key != "" {
			sub = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, sub, ga)
		}
		return
	}

	// The component tag identifies the logger, not the event.
	if group == "" && a.Key == "component" {
		return
	}

	b.WriteByte(' ')
	b.WriteString(group)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
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
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

var _ slog.Handler = (*Handler)(nil)
