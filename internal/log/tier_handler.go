package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LevelCritical is the tier above slog.LevelError. Found forms are reported
// at this level so that verbosity 1 shows nothing else.
const LevelCritical = slog.Level(12)

// tier describes how one severity tier is rendered.
type tier struct {
	prefix string
	color  *color.Color
}

// tierFor maps a record level to its tier. Levels between tiers round down.
func tierFor(level slog.Level) tier {
	switch {
	case level >= LevelCritical:
		return tier{prefix: "[+]", color: color.New(color.FgGreen)}
	case level >= slog.LevelError:
		return tier{prefix: "[-]", color: color.New(color.FgRed)}
	case level >= slog.LevelWarn:
		return tier{prefix: "[?]", color: color.New(color.FgYellow)}
	case level >= slog.LevelInfo:
		return tier{prefix: "[i]"}
	default:
		return tier{prefix: "[d]"}
	}
}

// TierHandler is an slog.Handler that writes one line per record:
//
//	[+] message key=value
//
// The prefix is chosen from the record level. With color enabled, the prefix
// and message of the critical, error and warning tiers are colored the way a
// terminal user expects (green, red, yellow). Attributes follow the message
// uncolored. Time and source are never printed.
type TierHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	color  bool
	prefix string
	attrs  []slog.Attr
}

// NewTierHandler creates a handler writing records at or above level to w.
func NewTierHandler(w io.Writer, level slog.Leveler, colored bool) *TierHandler {
	return &TierHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		color: colored,
	}
}

// Enabled reports whether level reaches the handler's minimum level.
func (h *TierHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
func (h *TierHandler) Handle(_ context.Context, r slog.Record) error {
	t := tierFor(r.Level)

	head := t.prefix + " " + r.Message
	if t.color != nil {
		if h.color {
			t.color.EnableColor()
		} else {
			t.color.DisableColor()
		}
		head = t.color.Sprint(head)
	}

	var b strings.Builder
	b.WriteString(head)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *TierHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, qualify(h.prefix, a))
	}
	return &h2
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *TierHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// qualify prepends the group prefix to a's key.
func qualify(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	return slog.Attr{Key: prefix + a.Key, Value: a.Value}
}

// writeAttr appends " key=value" to b. Groups are flattened with dotted keys.
func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, m := range a.Value.Group() {
			writeAttr(b, groupPrefix, m)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(prefix + a.Key)
	b.WriteByte('=')

	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}
	b.WriteString(v)
}

// fanoutHandler sends every record to each of its handlers that accepts it.
type fanoutHandler []slog.Handler

// Enabled reports whether any handler accepts level.
func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes a copy of r to every handler that accepts it and returns the
// first error.
func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
