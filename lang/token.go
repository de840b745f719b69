package lang

import "strconv"

// TokenKind identifies the lexical class of a token.
type TokenKind uint8

const (
	// TokenEOF marks the end of the token stream.
	TokenEOF TokenKind = iota

	// TokenText is a literal run of template text outside any directive.
	TokenText

	// TokenIdent is an identifier. Identifiers may contain hyphens
	// (e.g., path-pretty, in-repo) since the language has no arithmetic.
	TokenIdent

	// TokenString is a single-quoted string literal.
	// Text holds the decoded value with escapes resolved.
	TokenString

	// TokenNumber is a decimal numeric literal, optionally negative.
	TokenNumber

	// TokenKeyword is a reserved word: if, else, for, in, let, const,
	// true, false.
	TokenKeyword

	// TokenOperator is an operator such as &&, ||, !, |, =, ==, .., or $.
	TokenOperator

	// TokenPunct is punctuation: ( ) [ ] { }.
	TokenPunct

	// TokenStyleOpen opens a style block. Text holds the raw style spec
	// between "<s." and ">".
	TokenStyleOpen

	// TokenStyleClose is the closing style tag "</s>".
	TokenStyleClose

	// TokenPartial is a partial inclusion directive.
	// Text holds the trimmed file path between "{>" and "}".
	TokenPartial
)

// String returns a human-readable name for the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"

	case TokenText:
		return "text"

	case TokenIdent:
		return "identifier"

	case TokenString:
		return "string"

	case TokenNumber:
		return "number"

	case TokenKeyword:
		return "keyword"

	case TokenOperator:
		return "operator"

	case TokenPunct:
		return "punctuation"

	case TokenStyleOpen:
		return "style open tag"

	case TokenStyleClose:
		return "style close tag"

	case TokenPartial:
		return "partial reference"

	default:
		return "unknown"
	}
}

// Position locates a byte within template source.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

// String formats the position as "line L, column C".
func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// Token is a single lexical unit of template source.
// Tokens are produced once per lex pass and never mutated.
type Token struct {
	Text string
	Pos  Position
	Kind TokenKind
}

// String describes the token for diagnostics.
func (t Token) String() string {
	if t.Kind == TokenEOF {
		return t.Kind.String()
	}

	return t.Kind.String() + " " + strconv.Quote(t.Text)
}
