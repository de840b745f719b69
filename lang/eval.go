package lang

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

// Render evaluates the template against env and returns the rendered
// text. A nil env renders with no variables bound.
//
// The environment is mutated by let, const, and assignment
// directives, so concurrent renders must not share one.
func (t *Template) Render(ctx context.Context, env *Env) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if env == nil {
		env = NewEnv()
	}

	t.logger.TraceContext(ctx, "render template",
		slog.Int("source_len", len(t.source)))

	e := &evaluator{ctx: ctx, tmpl: t, env: env}

	v, err := t.root.eval(e)
	if err != nil {
		return "", err
	}

	out := v.Text()

	t.logger.TraceContext(ctx, "render complete",
		slog.Int("output_len", len(out)))

	return out, nil
}

// evaluator holds the state for one render pass.
type evaluator struct {
	ctx    context.Context
	tmpl   *Template
	env    *Env
	styles styleStack
	depth  int // current partial inclusion depth
}

// evalBody evaluates a directive body in a child scope, so bindings
// introduced inside do not escape.
func (e *evaluator) evalBody(body *groupNode) (Value, error) {
	saved := e.env
	e.env = saved.Child()

	v, err := body.eval(e)

	e.env = saved

	return v, err
}

// eval concatenates the rendered children. A group with exactly one
// child passes its value through unchanged, which keeps the kind of
// single-expression bodies intact for value positions.
func (g *groupNode) eval(e *evaluator) (Value, error) {
	if len(g.children) == 1 {
		return g.children[0].eval(e)
	}

	var b strings.Builder

	for _, c := range g.children {
		v, err := c.eval(e)
		if err != nil {
			return Null, err
		}

		b.WriteString(v.Text())
	}

	if b.Len() == 0 {
		return Null, nil
	}

	return NewString(b.String()), nil
}

func (n *literalNode) eval(*evaluator) (Value, error) {
	return n.val, nil
}

func (n *repeatNode) eval(*evaluator) (Value, error) {
	return NewString(strings.Repeat(n.text, n.count)), nil
}

// eval resolves the variable, yielding null when unbound so templates
// degrade to empty output instead of failing on missing data.
func (n *varNode) eval(e *evaluator) (Value, error) {
	v, ok := e.env.Get(n.name)
	if !ok {
		return Null, nil
	}

	return v, nil
}

func (n *envNode) eval(e *evaluator) (Value, error) {
	if e.tmpl.environ == nil {
		return Null, nil
	}

	s, ok := e.tmpl.environ.Get(n.name)
	if !ok {
		return Null, nil
	}

	return NewString(s), nil
}

// eval selects a member, yielding null when the base is not a
// dictionary or the key is absent.
func (n *fieldNode) eval(e *evaluator) (Value, error) {
	base, err := n.base.eval(e)
	if err != nil {
		return Null, err
	}

	if base.Kind != KindDict || base.Dict == nil {
		return Null, nil
	}

	v, ok := base.Dict.Get(n.name)
	if !ok {
		return Null, nil
	}

	return v, nil
}

// eval indexes a list or dictionary. List indices must be integral
// numbers; negative indices count from the end, and out-of-range
// access yields null. Indexing a scalar is a type error.
func (n *indexNode) eval(e *evaluator) (Value, error) {
	base, err := n.base.eval(e)
	if err != nil {
		return Null, err
	}

	idx, err := n.index.eval(e)
	if err != nil {
		return Null, err
	}

	switch base.Kind {
	case KindNull:
		return Null, nil

	case KindList:
		f, ok := idx.Number()
		if !ok || f != math.Trunc(f) {
			return Null, ErrType.WithPosition(n.pos).
				With(slog.String("index", idx.Text()))
		}

		i := int(f)
		if i < 0 {
			i += len(base.List)
		}

		if i < 0 || i >= len(base.List) {
			return Null, nil
		}

		return base.List[i], nil

	case KindDict:
		if base.Dict == nil {
			return Null, nil
		}

		v, ok := base.Dict.Get(idx.Text())
		if !ok {
			return Null, nil
		}

		return v, nil

	default:
		return Null, ErrType.WithPosition(n.pos).
			With(slog.String("kind", base.Kind.String()))
	}
}

// eval binds a name in the environment and renders nothing.
func (n *assignNode) eval(e *evaluator) (Value, error) {
	v, err := n.expr.eval(e)
	if err != nil {
		return Null, err
	}

	switch n.kind {
	case assignLet:
		err = e.env.Let(n.name, v)

	case assignConst:
		err = e.env.Const(n.name, v)

	case assignSet:
		err = e.env.Assign(n.name, v)
	}

	if err != nil {
		return Null, WrapError(err).WithPosition(n.pos)
	}

	return Null, nil
}

func (n *notNode) eval(e *evaluator) (Value, error) {
	v, err := n.expr.eval(e)
	if err != nil {
		return Null, err
	}

	return NewBool(!v.Truthy()), nil
}

// eval short-circuits: && skips the right side when the left is
// falsy, || when it is truthy. The result is always a bool.
func (n *logicNode) eval(e *evaluator) (Value, error) {
	lhs, err := n.lhs.eval(e)
	if err != nil {
		return Null, err
	}

	if n.op == "&&" && !lhs.Truthy() {
		return NewBool(false), nil
	}

	if n.op == "||" && lhs.Truthy() {
		return NewBool(true), nil
	}

	rhs, err := n.rhs.eval(e)
	if err != nil {
		return Null, err
	}

	return NewBool(rhs.Truthy()), nil
}

// eval yields the primary value, or the alternative when the primary
// is falsy. Errors are not caught; only absent or empty data
// triggers the fallback.
func (n *fallbackNode) eval(e *evaluator) (Value, error) {
	v, err := n.expr.eval(e)
	if err != nil {
		return Null, err
	}

	if v.Truthy() {
		return v, nil
	}

	return n.fallback.eval(e)
}

// eval tries each arm in order and yields the body of the first
// truthy condition. Later arms are not evaluated, so their side
// effects do not occur.
func (n *condNode) eval(e *evaluator) (Value, error) {
	for _, arm := range n.arms {
		c, err := arm.cond.eval(e)
		if err != nil {
			return Null, err
		}

		if !c.Truthy() {
			continue
		}

		return e.evalBody(arm.body)
	}

	if n.els != nil {
		return e.evalBody(n.els)
	}

	return Null, nil
}

// eval iterates a list or a half-open integer range (the end bound is
// excluded), rendering the body once per element in a fresh scope. A
// null iterable loops zero times; any other non-list iterable is a
// type error.
func (n *loopNode) eval(e *evaluator) (Value, error) {
	var b strings.Builder

	if n.from != nil {
		from, to, err := e.rangeBounds(n)
		if err != nil {
			return Null, err
		}

		for i := from; i < to; i++ {
			if err := e.loopIter(n, &b, i-from, NewNumber(float64(i))); err != nil {
				return Null, err
			}
		}

		return NewString(b.String()), nil
	}

	iter, err := n.iter.eval(e)
	if err != nil {
		return Null, err
	}

	switch iter.Kind {
	case KindNull:
		return Null, nil

	case KindList:
		for i, elem := range iter.List {
			if err := e.loopIter(n, &b, i, elem); err != nil {
				return Null, err
			}
		}

		return NewString(b.String()), nil

	default:
		return Null, ErrType.WithPosition(n.pos).
			With(slog.String("kind", iter.Kind.String()))
	}
}

// rangeBounds evaluates both endpoints of a range loop.
// Endpoints must be integral numbers.
func (e *evaluator) rangeBounds(n *loopNode) (int, int, error) {
	fv, err := n.from.eval(e)
	if err != nil {
		return 0, 0, err
	}

	tv, err := n.to.eval(e)
	if err != nil {
		return 0, 0, err
	}

	ff, fok := fv.Number()
	tf, tok := tv.Number()

	if !fok || !tok || ff != math.Trunc(ff) || tf != math.Trunc(tf) {
		return 0, 0, ErrType.WithPosition(n.pos).
			With(
				slog.String("from", fv.Text()),
				slog.String("to", tv.Text()),
			)
	}

	return int(ff), int(tf), nil
}

// loopIter renders one loop iteration into b. Each iteration gets
// its own scope with the element and optional ordinal bound, and the
// render context is checked so cancellation interrupts long loops.
func (e *evaluator) loopIter(n *loopNode, b *strings.Builder, ordinal int, elem Value) error {
	if err := e.ctx.Err(); err != nil {
		return WrapError(err)
	}

	saved := e.env
	e.env = saved.Child()

	_ = e.env.Let(n.name, elem)

	if n.index != "" {
		_ = e.env.Let(n.index, NewNumber(float64(ordinal)))
	}

	v, err := n.body.eval(e)

	e.env = saved

	if err != nil {
		return err
	}

	b.WriteString(v.Text())

	return nil
}

func (n *listNode) eval(e *evaluator) (Value, error) {
	elems := make([]Value, 0, len(n.elems))

	for _, en := range n.elems {
		v, err := en.eval(e)
		if err != nil {
			return Null, err
		}

		elems = append(elems, v)
	}

	return NewList(elems...), nil
}

func (n *dictNode) eval(e *evaluator) (Value, error) {
	d := NewDict()

	for i, en := range n.elems {
		v, err := en.eval(e)
		if err != nil {
			return Null, err
		}

		d.Set(n.keys[i], v)
	}

	return d.Value(), nil
}

// eval renders the body wrapped in the escape sequences of the
// resolved style. Exiting the block restores the styling of the
// enclosing blocks rather than clearing everything, and the
// outermost exit ends on a bare reset.
func (n *styleNode) eval(e *evaluator) (Value, error) {
	specV, err := n.spec.eval(e)
	if err != nil {
		return Null, err
	}

	enter := e.styles.push(parseStyleFrame(specV.Text()))

	v, err := n.body.eval(e)

	exit := e.styles.pop()

	if err != nil {
		return Null, err
	}

	return NewString(enter + v.Text() + exit), nil
}

// eval splices the referenced template file. The included source
// shares this render's environment, style stack, and depth budget.
// An unreadable file degrades to empty output; a file that fails to
// parse aborts the render.
func (n *includeNode) eval(e *evaluator) (Value, error) {
	if e.tmpl.files == nil {
		return Null, nil
	}

	if e.depth >= e.tmpl.opts.maxDepth {
		return Null, ErrIncludeDepth.WithPosition(n.pos).
			With(
				slog.String("path", n.path),
				slog.Int("max_depth", e.tmpl.opts.maxDepth),
			)
	}

	data, err := e.tmpl.files.ReadFile(n.path)
	if err != nil {
		e.tmpl.logger.DebugContext(e.ctx, "partial not readable",
			slog.String("path", n.path),
			slog.Any("error", err),
		)

		return Null, nil
	}

	root, err := parseRootCached(e.ctx, string(data), e.tmpl.logger)
	if err != nil {
		return Null, err
	}

	e.depth++
	v, err := root.eval(e)
	e.depth--

	return v, err
}

// eval runs the command through the configured runner and yields its
// output with trailing line breaks removed. Failures and timeouts
// degrade to null so a broken command cannot take the render down.
func (n *cmdNode) eval(e *evaluator) (Value, error) {
	if e.tmpl.runner == nil {
		return Null, nil
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.tmpl.opts.timeout)
	defer cancel()

	out, err := e.tmpl.runner.Run(ctx, n.line)
	if err != nil {
		e.tmpl.logger.DebugContext(e.ctx, "command failed",
			slog.String("command", n.line),
			slog.Any("error", err),
		)

		return Null, nil
	}

	return NewString(strings.TrimRight(out, "\r\n")), nil
}
