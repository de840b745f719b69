package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"message only",
			NewError("boom"),
			"boom",
		},
		{
			"message with position",
			ErrParse.WithPosition(Position{Offset: 9, Line: 2, Column: 3}),
			"parse error at line 2, column 3",
		},
		{
			"message with cause",
			NewError("outer").Wrap(errors.New("inner")),
			"outer: inner",
		},
		{
			"message with position and cause",
			ErrRegex.WithPosition(Position{Line: 1, Column: 7}).
				Wrap(errors.New("missing closing ]")),
			"invalid regular expression at line 1, column 7: missing closing ]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error(): expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	derived := ErrType.
		WithPosition(Position{Line: 3, Column: 1}).
		With(slog.String("kind", "list"))

	if !errors.Is(derived, ErrType) {
		t.Error("derived error should match its sentinel")
	}

	if errors.Is(derived, ErrParse) {
		t.Error("derived error should not match a different sentinel")
	}

	wrapped := fmt.Errorf("while rendering: %w", ErrRegex)
	if !errors.Is(wrapped, ErrRegex) {
		t.Error("fmt-wrapped sentinel should still match")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("read failed")
	e := ErrReadInput.Wrap(inner)

	if !errors.Is(e, inner) {
		t.Error("wrapped cause should be reachable through errors.Is")
	}

	if !errors.Is(e, ErrReadInput) {
		t.Error("wrapping must not lose the sentinel identity")
	}

	if got := errors.Unwrap(e); got != inner {
		t.Errorf("Unwrap: expected inner error, got %v", got)
	}
}

func TestError_Position(t *testing.T) {
	if _, ok := ErrLex.Position(); ok {
		t.Error("sentinel should carry no position")
	}

	pos := Position{Offset: 4, Line: 1, Column: 5}

	got, ok := ErrLex.WithPosition(pos).Position()
	if !ok || got != pos {
		t.Errorf("Position(): expected %v, got %v (ok=%v)", pos, got, ok)
	}
}

func TestWrapError(t *testing.T) {
	plain := errors.New("plain")

	if got := WrapError(plain); !errors.Is(got, plain) {
		t.Errorf("WrapError(plain): cause lost, got %v", got)
	}

	derived := ErrUndefined.With(slog.String("name", "x"))
	if got := WrapError(derived); got != derived {
		t.Errorf("WrapError(*Error): expected identity, got %v", got)
	}

	nested := fmt.Errorf("ctx: %w", ErrReassign)
	if got := WrapError(nested); !errors.Is(got, ErrReassign) {
		t.Errorf("WrapError(wrapped): expected ErrReassign, got %v", got)
	}
}

func TestError_LogValue(t *testing.T) {
	e := ErrType.
		WithPosition(Position{Line: 2, Column: 8}).
		With(slog.String("kind", "dict"))

	v := e.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind: expected group, got %v", v.Kind())
	}

	found := make(map[string]string)
	for _, a := range v.Group() {
		found[a.Key] = a.Value.String()
	}

	if found["error"] != "type mismatch" {
		t.Errorf("expected error attribute, got %v", found)
	}

	if found["position"] != "line 2, column 8" {
		t.Errorf("expected position attribute, got %v", found)
	}

	if found["kind"] != "dict" {
		t.Errorf("expected kind attribute, got %v", found)
	}
}

func TestParseError_NoSource(t *testing.T) {
	pe := &ParseError{Err: ErrParse.WithPosition(Position{Line: 1, Column: 2})}

	if got := pe.Error(); got != "parse error at line 1, column 2" {
		t.Errorf("Error(): expected bare message, got %q", got)
	}

	if !errors.Is(pe, ErrParse) {
		t.Error("ParseError should unwrap to its sentinel")
	}
}
