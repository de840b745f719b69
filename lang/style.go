package lang

import (
	"strconv"
	"strings"
)

// sgrReset clears all terminal attributes.
const sgrReset = "\x1b[0m"

// namedColors maps style names to SGR parameter codes.
// The on_ variants select the background.
//
//nolint:gochecknoglobals
var namedColors = map[string]int{
	"black":             30,
	"red":               31,
	"green":             32,
	"yellow":            33,
	"blue":              34,
	"magenta":           35,
	"cyan":              36,
	"white":             37,
	"bright_black":      90,
	"bright_red":        91,
	"bright_green":      92,
	"bright_yellow":     93,
	"bright_blue":       94,
	"bright_magenta":    95,
	"bright_cyan":       96,
	"bright_white":      97,
	"on_black":          40,
	"on_red":            41,
	"on_green":          42,
	"on_yellow":         43,
	"on_blue":           44,
	"on_magenta":        45,
	"on_cyan":           46,
	"on_white":          47,
	"on_bright_black":   100,
	"on_bright_red":     101,
	"on_bright_green":   102,
	"on_bright_yellow":  103,
	"on_bright_blue":    104,
	"on_bright_magenta": 105,
	"on_bright_cyan":    106,
	"on_bright_white":   107,
}

// styleFrame is the resolved attribute set of one style block.
// The fg and bg fields hold raw SGR parameters, empty when unset.
type styleFrame struct {
	fg        string
	bg        string
	bold      bool
	italic    bool
	underline bool
	reset     bool
}

// parseStyleFrame resolves a style spec to its frame. Each spec names
// a single attribute; blocks nest to combine attributes. Unknown
// specs produce an inert frame, so a typo styles nothing rather than
// failing the render.
func parseStyleFrame(spec string) styleFrame {
	spec = strings.TrimSpace(spec)

	if code, ok := namedColors[spec]; ok {
		param := strconv.Itoa(code)

		// Background codes occupy 40-47 and 100-107
		if (code >= 40 && code <= 47) || code >= 100 {
			return styleFrame{bg: param}
		}

		return styleFrame{fg: param}
	}

	switch spec {
	case "reset":
		return styleFrame{reset: true}

	case "bold", "b":
		return styleFrame{bold: true}

	case "italic", "i":
		return styleFrame{italic: true}

	case "underline", "u":
		return styleFrame{underline: true}
	}

	if strings.HasPrefix(spec, "#") {
		if rgb, ok := hexColor(spec); ok {
			return styleFrame{fg: "38;2;" + rgb}
		}

		return styleFrame{}
	}

	if strings.HasPrefix(spec, "rgb(") {
		if rgb, ok := rgbColor(spec); ok {
			return styleFrame{fg: "38;2;" + rgb}
		}

		return styleFrame{}
	}

	return styleFrame{}
}

// seq renders the escape sequence that activates the frame.
// An inert frame renders nothing.
func (f styleFrame) seq() string {
	if f.reset {
		return sgrReset
	}

	codes := make([]string, 0, 5)

	if f.bold {
		codes = append(codes, "1")
	}

	if f.italic {
		codes = append(codes, "3")
	}

	if f.underline {
		codes = append(codes, "4")
	}

	if f.fg != "" {
		codes = append(codes, f.fg)
	}

	if f.bg != "" {
		codes = append(codes, f.bg)
	}

	if len(codes) == 0 {
		return ""
	}

	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// styleStack tracks the active style blocks of a render.
type styleStack struct {
	frames []styleFrame
}

// push activates a frame and returns the sequence entering it.
func (s *styleStack) push(f styleFrame) string {
	s.frames = append(s.frames, f)

	return f.seq()
}

// pop deactivates the top frame and returns the sequence restoring
// the enclosing state: a full reset followed by the merged
// attributes of the remaining frames. Popping the last styled frame
// therefore ends on a bare reset.
func (s *styleStack) pop() string {
	if len(s.frames) == 0 {
		return ""
	}

	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	// An inert frame emitted nothing on entry, so the terminal state
	// is already the enclosing state.
	if top.seq() == "" {
		return ""
	}

	return sgrReset + s.merged().seq()
}

// depth returns the number of active frames.
func (s *styleStack) depth() int {
	return len(s.frames)
}

// merged flattens the remaining frames bottom to top into the
// attribute state they produce together. Inner fg and bg settings
// win; a reset frame clears everything beneath it.
func (s *styleStack) merged() styleFrame {
	var m styleFrame

	for _, f := range s.frames {
		if f.reset {
			m = styleFrame{}

			continue
		}

		if f.fg != "" {
			m.fg = f.fg
		}

		if f.bg != "" {
			m.bg = f.bg
		}

		m.bold = m.bold || f.bold
		m.italic = m.italic || f.italic
		m.underline = m.underline || f.underline
	}

	return m
}

// hexColor parses #RRGGBB and #RGB into "R;G;B" decimal form.
func hexColor(spec string) (string, bool) {
	hex := strings.TrimPrefix(spec, "#")

	var parts [3]string

	switch len(hex) {
	case 6:
		parts[0], parts[1], parts[2] = hex[0:2], hex[2:4], hex[4:6]

	case 3:
		// Single digits double, so #f80 means #ff8800
		parts[0] = hex[0:1] + hex[0:1]
		parts[1] = hex[1:2] + hex[1:2]
		parts[2] = hex[2:3] + hex[2:3]

	default:
		return "", false
	}

	out := make([]string, 3)

	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return "", false
		}

		out[i] = strconv.FormatUint(n, 10)
	}

	return strings.Join(out, ";"), true
}

// rgbColor parses rgb(R,G,B) with decimal components into "R;G;B".
func rgbColor(spec string) (string, bool) {
	inner, ok := strings.CutPrefix(spec, "rgb(")
	if !ok {
		return "", false
	}

	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return "", false
	}

	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return "", false
	}

	out := make([]string, 3)

	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return "", false
		}

		out[i] = strconv.FormatUint(n, 10)
	}

	return strings.Join(out, ";"), true
}
