package lang

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexMode selects how the lexer interprets the current input region.
// Template source alternates between literal text and directive
// expressions, and bodies nest arbitrarily, so the active modes form
// a stack.
type lexMode uint8

const (
	modeText lexMode = iota // literal text, directives open with '{'
	modeExpr                // inside a directive, text bodies open with '{'
)

// keywords are the reserved words of the expression grammar.
var keywords = map[string]bool{
	"if":    true,
	"else":  true,
	"for":   true,
	"in":    true,
	"let":   true,
	"const": true,
	"true":  true,
	"false": true,
}

// twoCharOps are the multi-character operators, matched before any
// single-character operator.
var twoCharOps = []string{"&&", "||", "==", "!=", ">=", "<=", ".."}

// lexer splits template source into tokens.
type lexer struct {
	input string
	pos   int // byte offset of the next rune
	line  int // 1-based
	col   int // 1-based

	modes      []lexMode
	styleDepth int

	toks []Token
}

// newLexer creates a lexer over source, starting in text mode.
func newLexer(source string) *lexer {
	return &lexer{
		input: source,
		line:  1,
		col:   1,
		modes: []lexMode{modeText},
	}
}

// tokenize scans the entire input and returns the token stream,
// terminated by a TokenEOF entry.
func (l *lexer) tokenize() ([]Token, error) {
	for !l.eof() {
		var err error

		if l.mode() == modeText {
			err = l.text()
		} else {
			err = l.expr()
		}

		if err != nil {
			return nil, err
		}
	}

	if len(l.modes) > 1 {
		return nil, ErrUnterminated.WithPosition(l.position()).
			With(slog.String("block", "directive"))
	}

	if l.styleDepth > 0 {
		return nil, ErrUnterminated.WithPosition(l.position()).
			With(slog.String("block", "style"))
	}

	l.emit(TokenEOF, "", l.position())

	return l.toks, nil
}

// text scans literal text until a structural token or end of input.
// It emits at most one TokenText followed by whatever structural token
// ended the run.
func (l *lexer) text() error {
	start := l.position()

	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			l.emit(TokenText, b.String(), start)
		}
	}

	for !l.eof() {
		switch {
		case l.peek() == '{':
			flush()

			return l.openBrace()

		case l.peek() == '}' && len(l.modes) > 1:
			flush()
			l.emit(TokenPunct, "}", l.position())
			l.advance()
			l.pop()

			return nil

		case l.has("</s>"):
			flush()
			l.emit(TokenStyleClose, "</s>", l.position())
			l.advanceN(4)

			if l.styleDepth > 0 {
				l.styleDepth--
			}

			return nil

		case l.has("<s."):
			flush()

			return l.styleOpen()

		default:
			b.WriteRune(l.advance())
		}
	}

	flush()

	return nil
}

// openBrace handles a '{' seen in text mode. A brace whose content
// begins with '>' is a partial reference and is consumed whole;
// anything else opens a directive and switches to expression mode.
func (l *lexer) openBrace() error {
	pos := l.position()
	l.advance() // '{'

	mark, markLine, markCol := l.pos, l.line, l.col

	l.skipWhitespace()

	if l.peek() == '>' {
		l.advance()

		return l.partial(pos)
	}

	l.pos, l.line, l.col = mark, markLine, markCol

	l.emit(TokenPunct, "{", pos)
	l.push(modeExpr)

	return nil
}

// partial scans the file path of a "{>path}" reference.
// The path is taken verbatim up to the closing brace and trimmed.
func (l *lexer) partial(pos Position) error {
	var b strings.Builder

	for !l.eof() && l.peek() != '}' {
		b.WriteRune(l.advance())
	}

	if l.eof() {
		return ErrUnterminated.WithPosition(pos).
			With(slog.String("block", "partial"))
	}

	l.advance() // '}'
	l.emit(TokenPartial, strings.TrimSpace(b.String()), pos)

	return nil
}

// styleOpen scans a "<s.SPEC>" tag. Whitespace outside braces is
// insignificant, braces nest, and '>' at brace depth zero closes the
// tag. The spec is emitted raw for the parser to interpret.
func (l *lexer) styleOpen() error {
	pos := l.position()
	l.advanceN(3) // "<s."

	depth := 0

	var b strings.Builder

	for !l.eof() {
		ch := l.peek()

		switch {
		case ch == '{':
			depth++

			b.WriteRune(l.advance())

		case ch == '}':
			if depth > 0 {
				depth--
			}

			b.WriteRune(l.advance())

		case ch == '>' && depth == 0:
			l.advance()
			l.emit(TokenStyleOpen, b.String(), pos)
			l.styleDepth++

			return nil

		case depth == 0 && isSpace(ch):
			l.advance()

		default:
			b.WriteRune(l.advance())
		}
	}

	return ErrUnterminated.WithPosition(pos).
		With(slog.String("block", "style"))
}

// expr scans a single token in expression mode.
func (l *lexer) expr() error {
	l.skipWhitespace()

	if l.eof() {
		return nil
	}

	pos := l.position()

	for _, op := range twoCharOps {
		if l.has(op) {
			l.emit(TokenOperator, op, pos)
			l.advanceN(len(op))

			return nil
		}
	}

	ch := l.peek()

	switch {
	case ch == '\'':
		return l.scanString(pos)

	case isDigit(ch) || (ch == '-' && isDigit(l.peekAt(1))):
		l.scanNumber(pos)

		return nil

	case ch == '{':
		l.advance()
		l.emit(TokenPunct, "{", pos)
		l.push(modeText)

		return nil

	case ch == '}':
		l.advance()
		l.emit(TokenPunct, "}", pos)
		l.pop()

		return nil

	case ch == '(' || ch == ')' || ch == '[' || ch == ']' || ch == ',':
		l.advance()
		l.emit(TokenPunct, string(ch), pos)

		return nil

	case strings.ContainsRune("!><=|:.$", rune(ch)):
		l.advance()
		l.emit(TokenOperator, string(ch), pos)

		return nil
	}

	if r, _ := utf8.DecodeRuneInString(l.input[l.pos:]); isIdentifierStart(r) {
		l.scanWord(pos)

		return nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

	return ErrLex.WithPosition(pos).
		With(slog.String("character", string(r)))
}

// scanString scans a single-quoted string literal, decoding the
// escapes \n, \t, \', and \\. Unknown escape pairs are kept verbatim.
func (l *lexer) scanString(pos Position) error {
	l.advance() // opening quote

	var b strings.Builder

	for {
		if l.eof() {
			return ErrUnterminated.WithPosition(pos).
				With(slog.String("block", "string"))
		}

		switch r := l.advance(); r {
		case '\'':
			l.emit(TokenString, b.String(), pos)

			return nil

		case '\\':
			if l.eof() {
				return ErrUnterminated.WithPosition(pos).
					With(slog.String("block", "string"))
			}

			switch e := l.advance(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\'':
				b.WriteByte('\'')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteRune('\\')
				b.WriteRune(e)
			}

		default:
			b.WriteRune(r)
		}
	}
}

// scanNumber scans a decimal literal with an optional leading minus
// and fractional part. A '.' is part of the number only when a digit
// follows, so range bounds like "1..5" lex as two numbers.
func (l *lexer) scanNumber(pos Position) {
	start := l.pos

	if l.peek() == '-' {
		l.advance()
	}

	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for isDigit(l.peek()) {
			l.advance()
		}
	}

	l.emit(TokenNumber, l.input[start:l.pos], pos)
}

// scanWord scans an identifier or keyword. Identifiers may contain
// interior hyphens when the following character continues the word,
// which keeps names like path-pretty whole without an arithmetic
// minus to conflict with.
func (l *lexer) scanWord(pos Position) {
	start := l.pos
	l.advance() // first rune, validated by caller

	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])

		if isIdentifierContinue(r) {
			l.advance()

			continue
		}

		if r == '-' {
			next, _ := utf8.DecodeRuneInString(l.input[l.pos+size:])
			if isIdentifierContinue(next) {
				l.advance()

				continue
			}
		}

		break
	}

	word := l.input[start:l.pos]

	if keywords[word] {
		l.emit(TokenKeyword, word, pos)
	} else {
		l.emit(TokenIdent, word, pos)
	}
}

// emit appends a token to the stream.
func (l *lexer) emit(kind TokenKind, text string, pos Position) {
	l.toks = append(l.toks, Token{Kind: kind, Text: text, Pos: pos})
}

// mode returns the active lexing mode.
func (l *lexer) mode() lexMode {
	return l.modes[len(l.modes)-1]
}

// push enters a nested lexing mode.
func (l *lexer) push(m lexMode) {
	l.modes = append(l.modes, m)
}

// pop restores the enclosing lexing mode.
func (l *lexer) pop() {
	if len(l.modes) > 1 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

// eof reports whether the input is exhausted.
func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

// peek returns the next byte without consuming it, or 0 at end of
// input. Structural characters are all ASCII, so byte dispatch is
// safe here.
func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}

	return l.input[l.pos]
}

// peekAt returns the byte at offset n from the current position.
func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}

	return l.input[l.pos+n]
}

// has reports whether the remaining input starts with s.
func (l *lexer) has(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// advance consumes and returns the next rune, tracking line and
// column.
func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

// advanceN consumes n runes.
func (l *lexer) advanceN(n int) {
	for range n {
		l.advance()
	}
}

// skipWhitespace consumes spaces, tabs, and line breaks.
func (l *lexer) skipWhitespace() {
	for !l.eof() && isSpace(l.peek()) {
		l.advance()
	}
}

// position reports the location of the next rune.
func (l *lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentifierStart reports whether r can begin an identifier.
func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.In(r, unicode.L, unicode.Nl, unicode.Other_ID_Start)
}

// isIdentifierContinue reports whether r can appear inside an
// identifier.
func isIdentifierContinue(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r)
}
