package lang

import "testing"

func TestParseStyleFrame_Seq(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want string
	}{
		{"named color", "red", "\x1b[31m"},
		{"bright color", "bright_magenta", "\x1b[95m"},
		{"background", "on_blue", "\x1b[44m"},
		{"bright background", "on_bright_white", "\x1b[107m"},
		{"bold", "bold", "\x1b[1m"},
		{"bold short", "b", "\x1b[1m"},
		{"italic", "italic", "\x1b[3m"},
		{"italic short", "i", "\x1b[3m"},
		{"underline", "underline", "\x1b[4m"},
		{"underline short", "u", "\x1b[4m"},
		{"reset", "reset", "\x1b[0m"},
		{"surrounding whitespace", "  red  ", "\x1b[31m"},
		{"hex color", "#ff8800", "\x1b[38;2;255;136;0m"},
		{"short hex doubles digits", "#f80", "\x1b[38;2;255;136;0m"},
		{"short hex mixed case", "#0AF", "\x1b[38;2;0;170;255m"},
		{"rgb color", "rgb(255,136,0)", "\x1b[38;2;255;136;0m"},
		{"rgb with spaces", "rgb( 12, 34, 56 )", "\x1b[38;2;12;34;56m"},
		{"unknown name is inert", "sparkle", ""},
		{"bad hex length is inert", "#ff80", ""},
		{"bad hex digits are inert", "#xyz", ""},
		{"rgb component overflow is inert", "rgb(300,0,0)", ""},
		{"rgb missing component is inert", "rgb(1,2)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseStyleFrame(tt.spec).seq(); got != tt.want {
				t.Errorf("parseStyleFrame(%q).seq(): expected %q, got %q",
					tt.spec, tt.want, got)
			}
		})
	}
}

func TestStyleStack_PushPop(t *testing.T) {
	var s styleStack

	if got := s.push(parseStyleFrame("red")); got != "\x1b[31m" {
		t.Errorf("push red: expected SGR 31, got %q", got)
	}

	if got := s.push(parseStyleFrame("bold")); got != "\x1b[1m" {
		t.Errorf("push bold: expected SGR 1, got %q", got)
	}

	if s.depth() != 2 {
		t.Fatalf("depth: expected 2, got %d", s.depth())
	}

	// Leaving the inner block restores the outer color
	if got := s.pop(); got != "\x1b[0m\x1b[31m" {
		t.Errorf("pop bold: expected reset plus red, got %q", got)
	}

	// Leaving the outer block ends on a bare reset
	if got := s.pop(); got != "\x1b[0m" {
		t.Errorf("pop red: expected bare reset, got %q", got)
	}

	if got := s.pop(); got != "" {
		t.Errorf("pop empty stack: expected nothing, got %q", got)
	}
}

func TestStyleStack_InertFrames(t *testing.T) {
	var s styleStack

	_ = s.push(parseStyleFrame("red"))

	if got := s.push(parseStyleFrame("sparkle")); got != "" {
		t.Errorf("push inert: expected nothing, got %q", got)
	}

	// Popping an inert frame must not disturb the terminal state
	if got := s.pop(); got != "" {
		t.Errorf("pop inert: expected nothing, got %q", got)
	}

	if got := s.pop(); got != "\x1b[0m" {
		t.Errorf("pop red: expected bare reset, got %q", got)
	}
}

func TestStyleStack_MergedRestore(t *testing.T) {
	var s styleStack

	_ = s.push(parseStyleFrame("bold"))
	_ = s.push(parseStyleFrame("red"))
	_ = s.push(parseStyleFrame("green"))

	// Restoring after green re-applies bold and the red beneath it
	if got := s.pop(); got != "\x1b[0m\x1b[1;31m" {
		t.Errorf("pop green: expected bold and red, got %q", got)
	}

	// The innermost remaining color wins when frames disagree
	_ = s.push(parseStyleFrame("green"))
	_ = s.push(parseStyleFrame("underline"))

	if got := s.pop(); got != "\x1b[0m\x1b[1;32m" {
		t.Errorf("pop underline: expected bold and green, got %q", got)
	}
}

func TestStyleStack_ResetFrame(t *testing.T) {
	var s styleStack

	_ = s.push(parseStyleFrame("red"))

	if got := s.push(parseStyleFrame("reset")); got != "\x1b[0m" {
		t.Errorf("push reset: expected bare reset, got %q", got)
	}

	// Leaving the reset block restores the suppressed color
	if got := s.pop(); got != "\x1b[0m\x1b[31m" {
		t.Errorf("pop reset: expected red restored, got %q", got)
	}
}

func TestStyleStack_ForegroundBackground(t *testing.T) {
	var s styleStack

	_ = s.push(parseStyleFrame("on_blue"))
	_ = s.push(parseStyleFrame("white"))
	_ = s.push(parseStyleFrame("bold"))

	// Both the foreground and background survive the restore
	if got := s.pop(); got != "\x1b[0m\x1b[37;44m" {
		t.Errorf("pop bold: expected white on blue, got %q", got)
	}
}
