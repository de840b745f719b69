package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/quill/log"
)

// Parse parses template source into a renderable Template.
//
// Parsing is collaborator-independent, so the resulting tree is cached
// per source text and shared between Templates. The options configure
// only the returned Template.
func Parse(ctx context.Context, source string, opts ...Option) (*Template, error) {
	t := &Template{source: source}
	applyDefaults(t)
	applyOptions(t, opts...)

	t.logger.TraceContext(ctx, "parse template",
		slog.Int("source_len", len(source)))

	root, err := parseRootCached(ctx, source, t.logger)
	if err != nil {
		return nil, err
	}

	t.root = root

	return t, nil
}

// Normalize joins multi-line template source into a single line.
// Every line is trimmed of surrounding whitespace before joining, so
// sources can be indented for readability without the indentation
// leaking into output. A two-character backslash-n sequence survives
// as a real newline, which is the only way a normalized source can
// emit a line break outside of string literals.
func Normalize(source string) string {
	const marker = "\x00"

	s := strings.ReplaceAll(source, `\n`, marker)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.ReplaceAll(strings.Join(lines, ""), marker, "\n")
}

// parseRoot lexes and parses source into its root node group.
func parseRoot(ctx context.Context, source string, logger log.Logger) (*groupNode, error) {
	toks, err := newLexer(source).tokenize()
	if err != nil {
		return nil, err
	}

	logger.TraceContext(ctx, "tokenize complete",
		slog.Int("token_count", len(toks)))

	p := &parser{toks: toks, source: source, logger: logger}

	return p.parseGroup(ctx, stopEOF)
}

// stopSet names the token that terminates a node group.
type stopSet uint8

const (
	stopEOF   stopSet = iota // top level, ends at end of input
	stopBrace                // directive body, ends before '}'
	stopStyle                // style content, ends before '</s>'
)

// String returns the terminator expected by the stop set.
func (s stopSet) String() string {
	switch s {
	case stopBrace:
		return "}"

	case stopStyle:
		return "</s>"

	default:
		return "end of input"
	}
}

// parser consumes a token stream produced by the lexer.
type parser struct {
	toks   []Token
	source string
	idx    int
	logger log.Logger
}

// parseGroup parses a sequence of text, directives, partials, and
// style blocks, stopping before the group's terminator. The caller
// consumes the terminator itself.
func (p *parser) parseGroup(ctx context.Context, stop stopSet) (*groupNode, error) {
	g := &groupNode{}

	for {
		t := p.cur()

		switch {
		case t.Kind == TokenEOF:
			if stop != stopEOF {
				return nil, p.fail(stop.String())
			}

			return g, nil

		case t.Kind == TokenText:
			p.next()
			g.children = append(g.children, &literalNode{val: NewString(t.Text)})

		case t.Kind == TokenPartial:
			p.next()
			g.children = append(g.children, &includeNode{path: t.Text, pos: t.Pos})

		case t.Kind == TokenStyleOpen:
			n, err := p.parseStyle(ctx)
			if err != nil {
				return nil, err
			}

			g.children = append(g.children, n)

		case t.Kind == TokenStyleClose:
			if stop == stopStyle {
				return g, nil
			}

			return nil, p.fail(stop.String())

		case t.Kind == TokenPunct && t.Text == "}":
			if stop == stopBrace {
				return g, nil
			}

			return nil, p.fail(stop.String())

		case t.Kind == TokenPunct && t.Text == "{":
			n, err := p.parseDirective(ctx)
			if err != nil {
				return nil, err
			}

			g.children = append(g.children, n)

		default:
			return nil, p.fail("text", "directive")
		}
	}
}

// parseDirective parses one brace-delimited directive.
func (p *parser) parseDirective(ctx context.Context) (Node, error) {
	p.next() // '{'

	var (
		n   Node
		err error
	)

	t := p.cur()

	switch {
	case t.Kind == TokenKeyword && (t.Text == "let" || t.Text == "const"):
		n, err = p.parseDecl(ctx)

	case t.Kind == TokenKeyword && t.Text == "if":
		n, err = p.parseCond(ctx)

	case t.Kind == TokenKeyword && t.Text == "for":
		n, err = p.parseLoop(ctx)

	case t.Kind == TokenIdent && p.peek().Kind == TokenOperator && p.peek().Text == "=":
		n, err = p.parseSet(ctx)

	default:
		n, err = p.parseExpr(ctx)
	}

	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenPunct, "}"); err != nil {
		return nil, err
	}

	return n, nil
}

// parseDecl parses a let or const declaration.
func (p *parser) parseDecl(ctx context.Context) (Node, error) {
	kw := p.next()

	nameTok, err := p.expect(TokenIdent, "")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenOperator, "="); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr(ctx)
	if err != nil {
		return nil, err
	}

	kind := assignLet
	if kw.Text == "const" {
		kind = assignConst
	}

	return &assignNode{kind: kind, name: nameTok.Text, expr: expr, pos: kw.Pos}, nil
}

// parseSet parses a rebinding of an existing variable.
func (p *parser) parseSet(ctx context.Context) (Node, error) {
	nameTok := p.next()
	p.next() // '='

	expr, err := p.parseExpr(ctx)
	if err != nil {
		return nil, err
	}

	return &assignNode{kind: assignSet, name: nameTok.Text, expr: expr, pos: nameTok.Pos}, nil
}

// parseCond parses an if/else-if/else chain.
// The current token is the leading if keyword.
func (p *parser) parseCond(ctx context.Context) (Node, error) {
	p.next() // 'if'

	cond, err := p.parseExpr(ctx)
	if err != nil {
		return nil, err
	}

	body, err := p.parseBody(ctx)
	if err != nil {
		return nil, err
	}

	n := &condNode{arms: []condArm{{cond: cond, body: body}}}

	for p.at(TokenKeyword, "else") {
		p.next()

		if p.at(TokenKeyword, "if") {
			p.next()

			c, err := p.parseExpr(ctx)
			if err != nil {
				return nil, err
			}

			b, err := p.parseBody(ctx)
			if err != nil {
				return nil, err
			}

			n.arms = append(n.arms, condArm{cond: c, body: b})

			continue
		}

		if n.els, err = p.parseBody(ctx); err != nil {
			return nil, err
		}

		break
	}

	return n, nil
}

// parseLoop parses a for loop over a list, dictionary, or numeric
// range. The current token is the leading for keyword.
//
// The iterable parses at pipe precedence so the in keyword cannot be
// swallowed as a comparison operator.
func (p *parser) parseLoop(ctx context.Context) (Node, error) {
	kw := p.next()

	nameTok, err := p.expect(TokenIdent, "")
	if err != nil {
		return nil, err
	}

	n := &loopNode{name: nameTok.Text, pos: kw.Pos}

	if p.accept(TokenPunct, ",") {
		idxTok, err := p.expect(TokenIdent, "")
		if err != nil {
			return nil, err
		}

		n.index = idxTok.Text
	}

	if _, err := p.expect(TokenKeyword, "in"); err != nil {
		return nil, err
	}

	first, err := p.parsePipe(ctx)
	if err != nil {
		return nil, err
	}

	if p.accept(TokenOperator, "..") {
		to, err := p.parsePipe(ctx)
		if err != nil {
			return nil, err
		}

		n.from, n.to = first, to
	} else {
		n.iter = first
	}

	if n.body, err = p.parseBody(ctx); err != nil {
		return nil, err
	}

	return n, nil
}

// parseBody parses a brace-delimited template body.
// Whitespace at the edges of the body is trimmed so multi-line
// control flow does not leak its indentation into output.
func (p *parser) parseBody(ctx context.Context) (*groupNode, error) {
	if _, err := p.expect(TokenPunct, "{"); err != nil {
		return nil, err
	}

	g, err := p.parseGroup(ctx, stopBrace)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenPunct, "}"); err != nil {
		return nil, err
	}

	trimGroup(g)

	return g, nil
}

// trimGroup trims whitespace from the literal edges of a body.
func trimGroup(g *groupNode) {
	const cutset = " \t\r\n"

	if len(g.children) > 0 {
		if lit, ok := g.children[0].(*literalNode); ok && lit.val.Kind == KindString {
			s := strings.TrimLeft(lit.val.Str, cutset)
			if s == "" {
				g.children = g.children[1:]
			} else {
				g.children[0] = &literalNode{val: NewString(s)}
			}
		}
	}

	if len(g.children) > 0 {
		last := len(g.children) - 1
		if lit, ok := g.children[last].(*literalNode); ok && lit.val.Kind == KindString {
			s := strings.TrimRight(lit.val.Str, cutset)
			if s == "" {
				g.children = g.children[:last]
			} else {
				g.children[last] = &literalNode{val: NewString(s)}
			}
		}
	}
}

// parseStyle parses a style block. Content between the tags is kept
// verbatim, unlike directive bodies.
func (p *parser) parseStyle(ctx context.Context) (Node, error) {
	tok := p.next()

	spec, err := p.parseStyleSpec(ctx, tok)
	if err != nil {
		return nil, err
	}

	body, err := p.parseGroup(ctx, stopStyle)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenStyleClose, ""); err != nil {
		return nil, err
	}

	return &styleNode{spec: spec, body: body, pos: tok.Pos}, nil
}

// parseStyleSpec interprets the raw spec of a style tag. A spec
// containing directives is parsed as a nested template evaluated at
// render time; anything else is the literal style name.
func (p *parser) parseStyleSpec(ctx context.Context, tok Token) (Node, error) {
	raw := tok.Text

	if !strings.Contains(raw, "{") {
		return &literalNode{val: NewString(raw)}, nil
	}

	toks, err := newLexer(raw).tokenize()
	if err != nil {
		return nil, ErrParse.WithPosition(tok.Pos).Wrap(err)
	}

	sp := &parser{toks: toks, source: raw, logger: p.logger}

	return sp.parseGroup(ctx, stopEOF)
}

// parseExpr parses at the lowest precedence level.
// Precedence from loosest to tightest: logical or, logical and,
// negation, comparison, pipe, fallback, primary.
func (p *parser) parseExpr(ctx context.Context) (Node, error) {
	return p.parseOr(ctx)
}

func (p *parser) parseOr(ctx context.Context) (Node, error) {
	lhs, err := p.parseAnd(ctx)
	if err != nil {
		return nil, err
	}

	for p.at(TokenOperator, "||") {
		p.next()

		rhs, err := p.parseAnd(ctx)
		if err != nil {
			return nil, err
		}

		lhs = &logicNode{op: "||", lhs: lhs, rhs: rhs}
	}

	return lhs, nil
}

func (p *parser) parseAnd(ctx context.Context) (Node, error) {
	lhs, err := p.parseNot(ctx)
	if err != nil {
		return nil, err
	}

	for p.at(TokenOperator, "&&") {
		p.next()

		rhs, err := p.parseNot(ctx)
		if err != nil {
			return nil, err
		}

		lhs = &logicNode{op: "&&", lhs: lhs, rhs: rhs}
	}

	return lhs, nil
}

func (p *parser) parseNot(ctx context.Context) (Node, error) {
	if p.at(TokenOperator, "!") {
		p.next()

		expr, err := p.parseNot(ctx)
		if err != nil {
			return nil, err
		}

		return &notNode{expr: expr}, nil
	}

	return p.parseCmp(ctx)
}

// parseCmp parses an optional comparison. Word operators arrive as
// identifiers, symbol aliases as operator tokens, and in as a
// keyword; all resolve to their canonical word before evaluation.
func (p *parser) parseCmp(ctx context.Context) (Node, error) {
	lhs, err := p.parsePipe(ctx)
	if err != nil {
		return nil, err
	}

	t := p.cur()

	opText := ""
	if t.Kind == TokenOperator || t.Kind == TokenIdent ||
		(t.Kind == TokenKeyword && t.Text == "in") {
		opText = t.Text
	}

	if canon, ok := postfixOps[opText]; ok {
		p.next()

		return &binaryNode{op: canon, lhs: lhs, pos: t.Pos}, nil
	}

	canon, ok := compareOps[opText]
	if !ok {
		return lhs, nil
	}

	p.next()

	rhs, err := p.parsePipe(ctx)
	if err != nil {
		return nil, err
	}

	return &binaryNode{op: canon, lhs: lhs, rhs: rhs, pos: t.Pos}, nil
}

// parsePipe parses a value threaded through function stages.
func (p *parser) parsePipe(ctx context.Context) (Node, error) {
	lhs, err := p.parseFallback(ctx)
	if err != nil {
		return nil, err
	}

	var stages []pipeStage

	for p.at(TokenOperator, "|") {
		p.next()

		nameTok, err := p.expect(TokenIdent, "")
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenPunct, "("); err != nil {
			return nil, err
		}

		var args []Node

		if !p.at(TokenPunct, ")") {
			for {
				a, err := p.parseExpr(ctx)
				if err != nil {
					return nil, err
				}

				args = append(args, a)

				if !p.accept(TokenPunct, ",") {
					break
				}
			}
		}

		if _, err := p.expect(TokenPunct, ")"); err != nil {
			return nil, err
		}

		stages = append(stages, pipeStage{name: nameTok.Text, args: args, pos: nameTok.Pos})
	}

	if len(stages) == 0 {
		return lhs, nil
	}

	return &pipeNode{base: lhs, stages: stages}, nil
}

// parseFallback parses the expr : fallback form.
// Chains associate to the right, so a : b : c tries each in turn.
func (p *parser) parseFallback(ctx context.Context) (Node, error) {
	expr, err := p.parsePrimary(ctx)
	if err != nil {
		return nil, err
	}

	if !p.at(TokenOperator, ":") {
		return expr, nil
	}

	p.next()

	fb, err := p.parseFallback(ctx)
	if err != nil {
		return nil, err
	}

	return &fallbackNode{expr: expr, fallback: fb}, nil
}

// parsePrimary parses an atomic expression and its postfix
// selections.
func (p *parser) parsePrimary(ctx context.Context) (Node, error) {
	t := p.cur()

	switch {
	case t.Kind == TokenString:
		p.next()

		// A count after a string literal repeats it
		if p.at(TokenNumber, "") {
			cnt := p.next()

			n, err := strconv.Atoi(cnt.Text)
			if err != nil {
				return nil, p.failTok(cnt, "repeat count")
			}

			// Negative counts repeat zero times.
			return &repeatNode{text: t.Text, count: max(n, 0)}, nil
		}

		return &literalNode{val: NewString(t.Text)}, nil

	case t.Kind == TokenNumber:
		p.next()

		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.failTok(t, "number")
		}

		return &literalNode{val: NewNumber(f)}, nil

	case t.Kind == TokenKeyword && t.Text == "true":
		p.next()

		return &literalNode{val: NewBool(true)}, nil

	case t.Kind == TokenKeyword && t.Text == "false":
		p.next()

		return &literalNode{val: NewBool(false)}, nil

	case t.Kind == TokenKeyword && t.Text == "if":
		return p.parseCond(ctx)

	case t.Kind == TokenOperator && t.Text == "$":
		p.next()

		nameTok, err := p.expect(TokenIdent, "")
		if err != nil {
			return nil, err
		}

		return &envNode{name: nameTok.Text}, nil

	case t.Kind == TokenIdent && t.Text == "cmd" &&
		p.peek().Kind == TokenPunct && p.peek().Text == "(":
		p.next()
		p.next()

		lineTok, err := p.expect(TokenString, "")
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenPunct, ")"); err != nil {
			return nil, err
		}

		return p.parsePostfix(ctx, &cmdNode{line: lineTok.Text, pos: t.Pos})

	case t.Kind == TokenIdent:
		p.next()

		return p.parsePostfix(ctx, &varNode{name: t.Text, pos: t.Pos})

	case t.Kind == TokenPunct && t.Text == "(":
		p.next()

		inner, err := p.parseExpr(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenPunct, ")"); err != nil {
			return nil, err
		}

		return p.parsePostfix(ctx, inner)

	case t.Kind == TokenPunct && t.Text == "[":
		n, err := p.parseCollection(ctx)
		if err != nil {
			return nil, err
		}

		return p.parsePostfix(ctx, n)

	default:
		return nil, p.fail("expression")
	}
}

// parsePostfix parses field selections and index operations.
func (p *parser) parsePostfix(ctx context.Context, base Node) (Node, error) {
	for {
		switch {
		case p.at(TokenOperator, "."):
			p.next()

			nameTok, err := p.expect(TokenIdent, "")
			if err != nil {
				return nil, err
			}

			base = &fieldNode{base: base, name: nameTok.Text}

		case p.at(TokenPunct, "["):
			open := p.next()

			idx, err := p.parseExpr(ctx)
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(TokenPunct, "]"); err != nil {
				return nil, err
			}

			base = &indexNode{base: base, index: idx, pos: open.Pos}

		default:
			return base, nil
		}
	}
}

// parseCollection parses a list or dictionary literal.
// A string key followed by ':' selects the dictionary form, and [:]
// is the empty dictionary.
func (p *parser) parseCollection(ctx context.Context) (Node, error) {
	p.next() // '['

	if p.at(TokenOperator, ":") {
		p.next()

		if _, err := p.expect(TokenPunct, "]"); err != nil {
			return nil, err
		}

		return &dictNode{}, nil
	}

	if p.accept(TokenPunct, "]") {
		return &listNode{}, nil
	}

	if p.at(TokenString, "") && p.peek().Kind == TokenOperator && p.peek().Text == ":" {
		return p.parseDict(ctx)
	}

	l := &listNode{}

	for {
		e, err := p.parseExpr(ctx)
		if err != nil {
			return nil, err
		}

		l.elems = append(l.elems, e)

		if !p.accept(TokenPunct, ",") {
			break
		}
	}

	if _, err := p.expect(TokenPunct, "]"); err != nil {
		return nil, err
	}

	return l, nil
}

// parseDict parses the entries of a dictionary literal, positioned
// at the first key.
func (p *parser) parseDict(ctx context.Context) (Node, error) {
	d := &dictNode{}

	for {
		keyTok, err := p.expect(TokenString, "")
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenOperator, ":"); err != nil {
			return nil, err
		}

		v, err := p.parseExpr(ctx)
		if err != nil {
			return nil, err
		}

		d.keys = append(d.keys, keyTok.Text)
		d.elems = append(d.elems, v)

		if !p.accept(TokenPunct, ",") {
			break
		}
	}

	if _, err := p.expect(TokenPunct, "]"); err != nil {
		return nil, err
	}

	return d, nil
}

// cur returns the current token without consuming it.
func (p *parser) cur() Token {
	if p.idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.idx]
}

// peek returns the token after the current one.
func (p *parser) peek() Token {
	if p.idx+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.idx+1]
}

// next consumes and returns the current token.
func (p *parser) next() Token {
	t := p.cur()

	if p.idx < len(p.toks)-1 {
		p.idx++
	}

	return t
}

// at reports whether the current token matches kind and, when text is
// non-empty, its literal text.
func (p *parser) at(kind TokenKind, text string) bool {
	t := p.cur()

	return t.Kind == kind && (text == "" || t.Text == text)
}

// accept consumes the current token when it matches.
func (p *parser) accept(kind TokenKind, text string) bool {
	if p.at(kind, text) {
		p.next()

		return true
	}

	return false
}

// expect consumes the current token when it matches and fails
// otherwise.
func (p *parser) expect(kind TokenKind, text string) (Token, error) {
	if p.at(kind, text) {
		return p.next(), nil
	}

	expected := text
	if expected == "" {
		expected = kind.String()
	}

	return Token{}, p.fail(expected)
}

// fail builds a syntax error at the current token.
func (p *parser) fail(expected ...string) error {
	return p.failTok(p.cur(), expected...)
}

// failTok builds a syntax error at the given token.
func (p *parser) failTok(t Token, expected ...string) error {
	return &ParseError{
		Err:      ErrParse.WithPosition(t.Pos),
		Source:   p.source,
		Expected: expected,
		Found:    t.String(),
	}
}
