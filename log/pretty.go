package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the lipgloss styles shared by the pretty handlers.
// Lipgloss consults the active terminal profile at render time, so output
// captured in a plain buffer degrades to uncolored text.
type palette struct {
	key   lipgloss.Style
	str   lipgloss.Style
	num   lipgloss.Style
	yes   lipgloss.Style
	no    lipgloss.Style
	span  lipgloss.Style
	stamp lipgloss.Style
	null  lipgloss.Style
	trace lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
}

func makePalette() palette {
	color := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   color("8"),
		str:   color("6"),
		num:   color("3"),
		yes:   color("2"),
		no:    color("1"),
		span:  color("5"),
		stamp: color("4"),
		null:  color("8"),
		trace: color("4"),
		info:  color("2"),
		warn:  color("3"),
		fail:  color("1"),
	}
}

// level returns the style for a severity tag.
func (p palette) level(l Level) lipgloss.Style {
	switch {
	case l >= LevelError:
		return p.fail

	case l >= LevelWarn:
		return p.warn

	case l >= LevelInfo:
		return p.info

	default:
		return p.trace
	}
}

// renderValue styles a resolved attribute value by kind.
func (p palette) renderValue(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.span.Render(v.Duration().String())

	case slog.KindTime:
		return p.stamp.Render(v.Time().String())

	case slog.KindAny:
		switch a := v.Any().(type) {
		case nil:
			return p.null.Render("null")

		case slog.Level:
			l := Level(a)

			return p.level(l).Render(l.String())
		}

		return p.str.Render(v.String())

	default:
		return p.str.Render(v.String())
	}
}

// qualifiedKey prefixes key with the open group names, mirroring how the
// builtin text handler spells grouped attributes.
func qualifiedKey(groups []string, key string) string {
	if len(groups) == 0 {
		return key
	}

	return strings.Join(groups, ".") + "." + key
}

// prettyTextHandler renders records as single-line key=value pairs with
// styled keys and values.
type prettyTextHandler struct {
	cfg    config
	pal    palette
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func newPrettyTextHandler(cfg config) *prettyTextHandler {
	return &prettyTextHandler{
		cfg: cfg,
		pal: makePalette(),
		mu:  &sync.Mutex{},
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		if stamp := h.cfg.formatTime(r.Time); stamp != "" {
			h.writePair(buf, slog.TimeKey, h.pal.stamp.Render(stamp))
		}
	}

	level := Level(r.Level)
	h.writePair(buf, slog.LevelKey, h.pal.level(level).Render(level.String()))

	if h.cfg.callsite {
		if src := r.Source(); src != nil {
			callsite := fmt.Sprintf("%s:%d", src.File, src.Line)
			h.writePair(buf, slog.SourceKey, h.pal.str.Render(callsite))
		}
	}

	h.writePair(buf, slog.MessageKey, h.pal.str.Render(r.Message))

	for _, a := range h.attrs {
		h.writePair(buf, a.Key, h.pal.renderValue(a.Value))
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writePair(buf, qualifiedKey(h.groups, a.Key), h.pal.renderValue(a.Value))

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write(buf.Bytes())

	return err
}

// WithAttrs stores attrs qualified by the currently open groups so every
// subsequent record carries them.
func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		a.Key = qualifiedKey(h.groups, a.Key)
		clone.attrs = append(clone.attrs, a)
	}

	return &clone
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &clone
}

func (h *prettyTextHandler) writePair(buf *bytes.Buffer, key, value string) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.pal.key.Render(key))
	buf.WriteByte('=')
	buf.WriteString(value)
}

// prettyJSONHandler renders records as an indented multiline block with
// styled keys and values. The layout reads like JSON but values are left
// unquoted for scanning by eye, not for parsing.
type prettyJSONHandler struct {
	cfg    config
	pal    palette
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func newPrettyJSONHandler(cfg config) *prettyJSONHandler {
	return &prettyJSONHandler{
		cfg: cfg,
		pal: makePalette(),
		mu:  &sync.Mutex{},
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.cfg.level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	buf.WriteString("{\n")

	first := true

	if !r.Time.IsZero() {
		if stamp := h.cfg.formatTime(r.Time); stamp != "" {
			h.writeField(buf, slog.TimeKey, h.pal.stamp.Render(stamp), &first)
		}
	}

	level := Level(r.Level)
	h.writeField(
		buf,
		slog.LevelKey,
		h.pal.level(level).Render(level.String()),
		&first,
	)

	if h.cfg.callsite {
		if src := r.Source(); src != nil {
			callsite := fmt.Sprintf("%s:%d", src.File, src.Line)
			h.writeField(buf, slog.SourceKey, h.pal.str.Render(callsite), &first)
		}
	}

	h.writeField(buf, slog.MessageKey, h.pal.str.Render(r.Message), &first)

	for _, a := range h.attrs {
		h.writeField(buf, a.Key, h.pal.renderValue(a.Value), &first)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeField(
			buf,
			qualifiedKey(h.groups, a.Key),
			h.pal.renderValue(a.Value),
			&first,
		)

		return true
	})

	buf.WriteString("\n}\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write(buf.Bytes())

	return err
}

// WithAttrs stores attrs qualified by the currently open groups so every
// subsequent record carries them.
func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		a.Key = qualifiedKey(h.groups, a.Key)
		clone.attrs = append(clone.attrs, a)
	}

	return &clone
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &clone
}

func (h *prettyJSONHandler) writeField(
	buf *bytes.Buffer,
	key, value string,
	first *bool,
) {
	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.WriteString("  ")
	buf.WriteString(h.pal.key.Render(key))
	buf.WriteString(": ")
	buf.WriteString(value)
}
