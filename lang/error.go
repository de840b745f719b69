package lang

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrLex          = NewError("unexpected character")
	ErrUnterminated = NewError("unterminated block")
	ErrParse        = NewError("parse error")
	ErrType         = NewError("type mismatch")
	ErrRegex        = NewError("invalid regular expression")
	ErrUnknownFunc  = NewError("unknown function")
	ErrReassign     = NewError("cannot reassign constant")
	ErrUndefined    = NewError("variable not declared")
	ErrIncludeDepth = NewError("include depth exceeded")
	ErrReadInput    = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes
// and an optional source position.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   *Position   // Source position where the error occurred
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> at <pos>: <err>" // all fields set
	//   2. "<msg>: <err>"          // no position recorded
	//   3. "<msg>"                 // wrapped error is nil
	//   4. "<err>"                 // base error message is empty
	//   5. ""                      // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if e.pos != nil {
			msg += " at " + e.pos.String()
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same base error.
// Derived errors created with Wrap, With, or WithPosition share their
// base message, so errors.Is matches them against the sentinel values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.msg != "" && e.msg == t.msg
}

// Position returns the source position recorded on the error, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("position", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		pos:   e.pos,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		pos:   e.pos,
	}
}

// WithPosition records the source position on a copy of the error.
func (e *Error) WithPosition(pos Position) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs, // Share attrs
		pos:   &pos,
	}
}

// ParseError describes a syntax error with source context.
type ParseError struct {
	Err      *Error   // Underlying error with position
	Source   string   // The original source input
	Expected []string // Tokens that would have been accepted
	Found    string   // Description of the offending token
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse error"
	}

	// If we have the source, format with context
	if e.Source != "" {
		msg, snippet := e.formatWithContext()

		tail := ""
		if len(e.Expected) > 0 {
			tail = "\texpected: " + strings.Join(e.expectedQuoted(), ", ")
			if e.Found != "" {
				tail += "; found " + e.Found
			}
		}

		return msg + snippet + tail
	}

	return e.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// formatWithContext formats the parse error with source code context.
func (e *ParseError) formatWithContext() (string, string) {
	pos, ok := e.Err.Position()
	if !ok {
		return e.Err.Error() + "\n", ""
	}

	lines := strings.Split(e.Source, "\n")

	var buf, src strings.Builder

	// Write error location and description
	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(pos.Column))
	buf.WriteString(":\n")

	// Show the offending line if within bounds
	if pos.Line > 0 && pos.Line <= len(lines) {
		line := lines[pos.Line-1]

		// Print the line with line number
		src.WriteString("  ")
		src.WriteString(strconv.Itoa(pos.Line))
		src.WriteString(" | ")
		src.WriteString(line)
		src.WriteRune('\n')

		// Print marker pointing to the column
		// Calculate the width needed for line number display
		lineNumWidth := len(strconv.Itoa(pos.Line))
		// +5 accounts for: 2 leading spaces + " | " (3 chars)
		padding := strings.Repeat(" ", lineNumWidth+5)

		// Add spaces to reach the error column
		if pos.Column > 0 {
			padding += strings.Repeat(" ", pos.Column-1)
		}

		src.WriteString(padding + "^\n")
	}

	return buf.String(), src.String()
}

// expectedQuoted returns the expected token list, quoted and sorted.
func (e *ParseError) expectedQuoted() []string {
	exp := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		exp = append(exp, strconv.Quote(s))
	}

	slices.Sort(exp)

	return exp
}
