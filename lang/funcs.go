package lang

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
)

// compareOps maps every binary comparison spelling, word or symbol,
// to its canonical word. The parser stores only canonical names.
//
//nolint:gochecknoglobals
var compareOps = map[string]string{
	"equals":             "equals",
	"==":                 "equals",
	"not_equals":         "not_equals",
	"!=":                 "not_equals",
	"equals_ignore_case": "equals_ignore_case",
	"ieq":                "equals_ignore_case",
	"contains":           "contains",
	"includes":           "contains",
	"not_contains":       "not_contains",
	"excludes":           "not_contains",
	"starts_with":        "starts_with",
	"ends_with":          "ends_with",
	"matches":            "matches",
	"in":                 "in",
	"not_in":             "not_in",
	"length_equals":      "length_equals",
	"length_greater":     "length_greater",
	"length_less":        "length_less",
	"greater":            "greater",
	">":                  "greater",
	"greater_equals":     "greater_equals",
	">=":                 "greater_equals",
	"less":               "less",
	"<":                  "less",
	"less_equals":        "less_equals",
	"<=":                 "less_equals",
}

// postfixOps maps the postfix predicate spellings.
//
//nolint:gochecknoglobals
var postfixOps = map[string]string{
	"is_empty":   "is_empty",
	"not_empty":  "not_empty",
	"is_number":  "is_number",
	"is_integer": "is_integer",
}

// eval applies the node's comparison. Postfix predicates have no
// right operand.
func (n *binaryNode) eval(e *evaluator) (Value, error) {
	lhs, err := n.lhs.eval(e)
	if err != nil {
		return Null, err
	}

	if n.rhs == nil {
		return evalPostfix(n.op, lhs), nil
	}

	rhs, err := n.rhs.eval(e)
	if err != nil {
		return Null, err
	}

	return evalCompare(n.op, lhs, rhs, n.pos)
}

// evalPostfix applies a postfix predicate.
func evalPostfix(op string, v Value) Value {
	switch op {
	case "is_empty":
		return NewBool(isEmpty(v))

	case "not_empty":
		return NewBool(!isEmpty(v))

	case "is_number":
		_, ok := v.Number()

		return NewBool(ok)

	case "is_integer":
		f, ok := v.Number()

		return NewBool(ok && f == math.Trunc(f))

	default:
		return Null
	}
}

// isEmpty reports whether a value has no content.
// Null is empty; numbers and bools never are.
func isEmpty(v Value) bool {
	switch v.Kind {
	case KindNull:
		return true

	case KindString, KindList, KindDict:
		return v.Len() == 0

	default:
		return false
	}
}

// evalCompare applies a canonical binary comparison.
func evalCompare(op string, lhs, rhs Value, pos Position) (Value, error) {
	switch op {
	case "equals":
		return NewBool(lhs.Equal(rhs)), nil

	case "not_equals":
		return NewBool(!lhs.Equal(rhs)), nil

	case "equals_ignore_case":
		return NewBool(strings.EqualFold(lhs.Text(), rhs.Text())), nil

	case "contains":
		return NewBool(contains(lhs, rhs)), nil

	case "not_contains":
		return NewBool(!contains(lhs, rhs)), nil

	case "starts_with":
		return NewBool(strings.HasPrefix(lhs.Text(), rhs.Text())), nil

	case "ends_with":
		return NewBool(strings.HasSuffix(lhs.Text(), rhs.Text())), nil

	case "matches":
		re, err := regexp.Compile(rhs.Text())
		if err != nil {
			return Null, ErrRegex.WithPosition(pos).Wrap(err)
		}

		return NewBool(re.MatchString(lhs.Text())), nil

	case "in":
		return NewBool(member(lhs, rhs)), nil

	case "not_in":
		return NewBool(!member(lhs, rhs)), nil

	case "length_equals", "length_greater", "length_less":
		return compareLength(op, lhs, rhs, pos)

	case "greater", "greater_equals", "less", "less_equals":
		return compareOrdered(op, lhs, rhs, pos)

	default:
		return Null, ErrUnknownFunc.WithPosition(pos).
			With(slog.String("operator", op))
	}
}

// contains reports substring presence for text operands and element
// membership when the left side is a list.
func contains(lhs, rhs Value) bool {
	if lhs.Kind == KindList {
		for _, elem := range lhs.List {
			if elem.Equal(rhs) {
				return true
			}
		}

		return false
	}

	return strings.Contains(lhs.Text(), rhs.Text())
}

// member reports whether lhs occurs in rhs: an element of a list, a
// substring of a string, or a key of a dictionary. A null rhs has no
// members.
func member(lhs, rhs Value) bool {
	switch rhs.Kind {
	case KindList:
		for _, elem := range rhs.List {
			if elem.Equal(lhs) {
				return true
			}
		}

		return false

	case KindString:
		return strings.Contains(rhs.Str, lhs.Text())

	case KindDict:
		if rhs.Dict == nil {
			return false
		}

		_, ok := rhs.Dict.Get(lhs.Text())

		return ok

	default:
		return false
	}
}

// compareLength compares the length of lhs against a numeric rhs.
func compareLength(op string, lhs, rhs Value, pos Position) (Value, error) {
	want, ok := rhs.Number()
	if !ok {
		return Null, ErrType.WithPosition(pos).
			With(
				slog.String("operator", op),
				slog.String("operand", rhs.Text()),
			)
	}

	n := float64(lhs.Len())

	switch op {
	case "length_equals":
		return NewBool(n == want), nil

	case "length_greater":
		return NewBool(n > want), nil

	default: // length_less
		return NewBool(n < want), nil
	}
}

// compareOrdered compares two numeric operands.
// Operands that do not interpret as numbers are a type error; there
// is no lexical ordering fallback.
func compareOrdered(op string, lhs, rhs Value, pos Position) (Value, error) {
	ln, lok := lhs.Number()
	rn, rok := rhs.Number()

	if !lok || !rok {
		return Null, ErrType.WithPosition(pos).
			With(
				slog.String("operator", op),
				slog.String("lhs", lhs.Text()),
				slog.String("rhs", rhs.Text()),
			)
	}

	switch op {
	case "greater":
		return NewBool(ln > rn), nil

	case "greater_equals":
		return NewBool(ln >= rn), nil

	case "less":
		return NewBool(ln < rn), nil

	default: // less_equals
		return NewBool(ln <= rn), nil
	}
}

// eval threads the base value through each stage left to right.
func (n *pipeNode) eval(e *evaluator) (Value, error) {
	v, err := n.base.eval(e)
	if err != nil {
		return Null, err
	}

	for _, st := range n.stages {
		args := make([]Value, len(st.args))

		for i, a := range st.args {
			if args[i], err = a.eval(e); err != nil {
				return Null, err
			}
		}

		if v, err = applyPipe(st.name, v, args, st.pos); err != nil {
			return Null, err
		}
	}

	return v, nil
}

// applyPipe dispatches one pipe stage by name.
func applyPipe(name string, base Value, args []Value, pos Position) (Value, error) {
	switch name {
	case "split":
		return pipeSplit(base, args, pos)

	case "match":
		return pipeMatch(base, args, pos)

	case "replace":
		return pipeReplace(base, args, pos)

	case "filter":
		return pipeFilter(base, args, pos)

	default:
		return Null, ErrUnknownFunc.WithPosition(pos).
			With(slog.String("function", name))
	}
}

// pipeSplit splits the rendered base on a literal separator and
// selects one element. Negative indices count from the end, and an
// out-of-range index yields empty text.
func pipeSplit(base Value, args []Value, pos Position) (Value, error) {
	if len(args) != 2 {
		return Null, badArity("split", 2, len(args), pos)
	}

	f, ok := args[1].Number()
	if !ok || f != math.Trunc(f) {
		return Null, ErrType.WithPosition(pos).
			With(
				slog.String("function", "split"),
				slog.String("index", args[1].Text()),
			)
	}

	parts := strings.Split(base.Text(), args[0].Text())

	i := int(f)
	if i < 0 {
		i += len(parts)
	}

	if i < 0 || i >= len(parts) {
		return NewString(""), nil
	}

	return NewString(parts[i]), nil
}

// pipeMatch applies a regular expression and selects a capture
// group, 0 being the whole match. No match, or a group the pattern
// does not define, yields empty text.
func pipeMatch(base Value, args []Value, pos Position) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Null, badArity("match", 2, len(args), pos)
	}

	group := 0

	if len(args) == 2 {
		f, ok := args[1].Number()
		if !ok || f != math.Trunc(f) {
			return Null, ErrType.WithPosition(pos).
				With(
					slog.String("function", "match"),
					slog.String("group", args[1].Text()),
				)
		}

		group = int(f)
	}

	re, err := regexp.Compile(args[0].Text())
	if err != nil {
		return Null, ErrRegex.WithPosition(pos).Wrap(err)
	}

	m := re.FindStringSubmatch(base.Text())
	if m == nil || group < 0 || group >= len(m) {
		return NewString(""), nil
	}

	return NewString(m[group]), nil
}

// pipeReplace substitutes every occurrence of the pattern. A pattern
// that compiles as a regular expression replaces matches, with $N
// group references in the replacement; anything else replaces the
// literal substring.
func pipeReplace(base Value, args []Value, pos Position) (Value, error) {
	if len(args) != 2 {
		return Null, badArity("replace", 2, len(args), pos)
	}

	pat, repl := args[0].Text(), args[1].Text()

	if re, err := regexp.Compile(pat); err == nil {
		return NewString(re.ReplaceAllString(base.Text(), repl)), nil
	}

	return NewString(strings.ReplaceAll(base.Text(), pat, repl)), nil
}

// pipeFilter retains the elements of a list of dictionaries whose
// field equals the wanted value, preserving order. Elements that are
// not dictionaries, or lack the field, are dropped.
func pipeFilter(base Value, args []Value, pos Position) (Value, error) {
	if len(args) != 2 {
		return Null, badArity("filter", 2, len(args), pos)
	}

	if base.Kind != KindList {
		return Null, ErrType.WithPosition(pos).
			With(
				slog.String("function", "filter"),
				slog.String("kind", base.Kind.String()),
			)
	}

	field, want := args[0].Text(), args[1]

	var out []Value

	for _, elem := range base.List {
		if elem.Kind != KindDict || elem.Dict == nil {
			continue
		}

		got, ok := elem.Dict.Get(field)
		if !ok {
			continue
		}

		if got.Equal(want) {
			out = append(out, elem)
		}
	}

	return NewList(out...), nil
}

// badArity builds the error for a pipe stage called with the wrong
// number of arguments.
func badArity(name string, want, got int, pos Position) error {
	return ErrType.WithPosition(pos).
		With(
			slog.String("function", name),
			slog.Int("expected_args", want),
			slog.Int("got_args", got),
		)
}
