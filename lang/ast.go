package lang

// Node is a parsed element of a template. Every node, including
// control flow, evaluates to a Value, which is what lets conditionals
// and loops appear anywhere an expression can.
//
// Nodes are immutable after parsing and safe to share between
// concurrent renders.
type Node interface {
	eval(e *evaluator) (Value, error)
}

// groupNode is a sequence of nodes whose rendered texts concatenate.
// It represents the template itself and every nested body.
type groupNode struct {
	children []Node
}

// literalNode yields a fixed value: literal text runs, quoted
// strings, numbers, and the boolean keywords.
type literalNode struct {
	val Value
}

// repeatNode yields a string literal repeated a fixed number of
// times, the {'text' N} form.
type repeatNode struct {
	text  string
	count int
}

// varNode resolves a name against the environment.
// Unresolved names yield null rather than failing.
type varNode struct {
	name string
	pos  Position
}

// envNode reads a process environment variable, the $NAME form.
type envNode struct {
	name string
}

// fieldNode selects a dictionary member, the base.name form.
type fieldNode struct {
	base Node
	name string
}

// indexNode selects a list element or dictionary member by computed
// key, the base[expr] form.
type indexNode struct {
	base  Node
	index Node
	pos   Position
}

// assignKind distinguishes the three binding statements.
type assignKind uint8

const (
	assignLet   assignKind = iota // let name = expr
	assignConst                   // const name = expr
	assignSet                     // name = expr
)

// assignNode binds a name in the environment and renders nothing.
type assignNode struct {
	expr Node
	name string
	pos  Position
	kind assignKind
}

// notNode is logical negation over truthiness.
type notNode struct {
	expr Node
}

// binaryNode applies a named comparison operator.
// The op field holds the canonical operator word; aliases are
// resolved during parsing. Postfix operators have a nil rhs.
type binaryNode struct {
	lhs Node
	rhs Node
	op  string
	pos Position
}

// logicNode is short-circuit && or ||.
type logicNode struct {
	lhs Node
	rhs Node
	op  string
}

// pipeStage is one function application in a pipe chain.
type pipeStage struct {
	args []Node
	name string
	pos  Position
}

// pipeNode threads a value through one or more function stages.
type pipeNode struct {
	base   Node
	stages []pipeStage
}

// fallbackNode yields the primary value unless it is falsy, in which
// case it yields the alternative, the expr : fallback form.
type fallbackNode struct {
	expr     Node
	fallback Node
}

// condArm is one condition and body of an if chain.
type condArm struct {
	cond Node
	body *groupNode
}

// condNode is an if/else-if/else chain. The first arm whose
// condition is truthy supplies the value; with no else, a fully
// falsy chain yields null.
type condNode struct {
	arms []condArm
	els  *groupNode
}

// loopNode iterates a list or an integer range, concatenating the
// rendered bodies. A range is active when from is non-nil.
type loopNode struct {
	iter  Node
	from  Node
	to    Node
	body  *groupNode
	name  string
	index string
	pos   Position
}

// listNode constructs a list from element expressions.
type listNode struct {
	elems []Node
}

// dictNode constructs an insertion-ordered dictionary.
// keys and elems are parallel.
type dictNode struct {
	keys  []string
	elems []Node
}

// styleNode wraps a body in terminal styling. The spec is itself a
// node so style selectors can be computed at render time.
type styleNode struct {
	spec Node
	body *groupNode
	pos  Position
}

// includeNode splices another template file, the {>path} form.
type includeNode struct {
	path string
	pos  Position
}

// cmdNode runs an external command and yields its trimmed output,
// the cmd('...') form.
type cmdNode struct {
	line string
	pos  Position
}
