package lang

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	// KindNull is the absent value. It is the zero Kind, so the zero
	// Value is null.
	KindNull Kind = iota

	// KindString holds text in Str.
	KindString

	// KindNumber holds a float64 in Num.
	KindNumber

	// KindBool holds a truth value in Bool.
	KindBool

	// KindList holds ordered elements in List.
	KindList

	// KindDict holds an insertion-ordered dictionary in Dict.
	KindDict
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"

	case KindString:
		return "string"

	case KindNumber:
		return "number"

	case KindBool:
		return "bool"

	case KindList:
		return "list"

	case KindDict:
		return "dict"

	default:
		return "unknown"
	}
}

// Value is a tagged union over the template data types.
// Exactly one payload field is meaningful, selected by Kind.
// Values are treated as immutable once constructed.
type Value struct {
	Str  string
	List []Value
	Dict *Dict
	Num  float64
	Kind Kind
	Bool bool
}

// Null is the absent value.
var Null = Value{}

// NewString creates a string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewNumber creates a numeric Value.
func NewNumber(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// NewBool creates a boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewList creates a list Value from the given elements.
func NewList(elems ...Value) Value {
	return Value{Kind: KindList, List: elems}
}

// Text renders the value as template output.
//
// Null renders as the empty string. Numbers use the shortest decimal
// representation that round-trips (integral values carry no decimal
// point). Lists join their rendered elements with ", ". Dicts join
// "key: value" pairs with ", " in insertion order.
func (v Value) Text() string {
	switch v.Kind {
	case KindNull:
		return ""

	case KindString:
		return v.Str

	case KindNumber:
		return formatNumber(v.Num)

	case KindBool:
		return strconv.FormatBool(v.Bool)

	case KindList:
		part := make([]string, 0, len(v.List))
		for _, e := range v.List {
			part = append(part, e.Text())
		}

		return strings.Join(part, ", ")

	case KindDict:
		if v.Dict == nil {
			return ""
		}

		part := make([]string, 0, v.Dict.Len())
		for key, val := range v.Dict.All() {
			part = append(part, key+": "+val.Text())
		}

		return strings.Join(part, ", ")

	default:
		return ""
	}
}

// Truthy reports whether the value is considered true in a condition.
// Null, the empty string, zero, false, and empty collections are falsy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false

	case KindString:
		return v.Str != ""

	case KindNumber:
		return v.Num != 0

	case KindBool:
		return v.Bool

	case KindList:
		return len(v.List) > 0

	case KindDict:
		return v.Dict != nil && v.Dict.Len() > 0

	default:
		return false
	}
}

// Number returns the numeric interpretation of the value.
// Numbers convert directly. Strings convert when they parse as a
// decimal number after trimming whitespace. All other kinds do not
// convert.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true

	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}

		return n, true

	default:
		return 0, false
	}
}

// Equal reports whether two values compare equal.
// When both sides interpret as numbers, they compare numerically, so
// '7' equals 7.0. Otherwise values compare by rendered text.
func (v Value) Equal(o Value) bool {
	if ln, lok := v.Number(); lok {
		if rn, rok := o.Number(); rok {
			return ln == rn
		}
	}

	return v.Text() == o.Text()
}

// Len returns the element count for collections and the length in
// bytes for strings. Other kinds have length zero.
func (v Value) Len() int {
	switch v.Kind {
	case KindString:
		return len(v.Str)

	case KindList:
		return len(v.List)

	case KindDict:
		if v.Dict == nil {
			return 0
		}

		return v.Dict.Len()

	default:
		return 0
	}
}

// Interface converts the value to its plain Go representation: nil,
// string, float64 (int64 when integral), bool, []any, or
// map[string]any. Useful for handing values to encoders.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str

	case KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
			return int64(v.Num)
		}

		return v.Num

	case KindBool:
		return v.Bool

	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Interface()
		}

		return out

	case KindDict:
		out := make(map[string]any, v.Len())

		if v.Dict != nil {
			for k, val := range v.Dict.All() {
				out[k] = val.Interface()
			}
		}

		return out

	default:
		return nil
	}
}

// formatNumber renders a float64 without a trailing ".0" for
// integral values.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Dict is an insertion-ordered string-keyed dictionary.
// Writing an existing key updates the stored value in place and keeps
// the key's original position.
type Dict struct {
	keys []string
	vals map[string]Value
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{vals: make(map[string]Value)}
}

// Set stores a value under key and returns the dictionary to allow
// chained construction.
func (d *Dict) Set(key string, v Value) *Dict {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.vals[key] = v

	return d
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.vals[key]

	return v, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)

	return keys
}

// All iterates entries in insertion order.
func (d *Dict) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, key := range d.keys {
			if !yield(key, d.vals[key]) {
				return
			}
		}
	}
}

// Value wraps the dictionary as a template Value.
func (d *Dict) Value() Value {
	return Value{Kind: KindDict, Dict: d}
}
