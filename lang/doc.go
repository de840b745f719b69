// Package lang implements the template language used for prompts and
// scripted text output. It provides the full pipeline from source to
// rendered string: a mode-stack lexer, a hand-written recursive
// descent parser, a tagged Value model, and a tree-walking evaluator
// with nested inline styling.
//
// # Grammar
//
// Template source is literal text interleaved with brace-delimited
// directives and style tags:
//
//	Template   → (Text | Directive | Style | Partial)*
//	Directive  → '{' (Decl | Cond | Loop | Expr) '}'
//	Decl       → ('let' | 'const') Identifier '=' Expr
//	           | Identifier '=' Expr
//	Cond       → 'if' Expr Body ('else' 'if' Expr Body)* ('else' Body)?
//	Loop       → 'for' Identifier (',' Identifier)? 'in' Iterable Body
//	Iterable   → Pipe | Pipe '..' Pipe
//	Body       → '{' Template '}'
//	Style      → '<s.' Spec '>' Template '</s>'
//	Partial    → '{>' Path '}'
//
// Expressions layer by precedence, loosest first:
//
//	Expr       → Or
//	Or         → And ('||' And)*
//	And        → Not ('&&' Not)*
//	Not        → '!' Not | Cmp
//	Cmp        → Pipe (CompareOp Pipe | PostfixOp)?
//	Pipe       → Fallback ('|' Identifier '(' Args ')')*
//	Fallback   → Primary (':' Fallback)?
//	Primary    → String | String Count | Number | 'true' | 'false'
//	           | Cond | '$' Identifier | 'cmd' '(' String ')'
//	           | Identifier | '(' Expr ')' | List | Dict
//
// Comparison operators have word forms (equals, contains,
// starts_with, in, greater, ...) and symbol aliases (==, !=, >, >=,
// <, <=). The postfix predicates are is_empty, not_empty, is_number,
// and is_integer.
//
// # Values
//
// Every node evaluates to a Value: null, string, number, bool, list,
// or dict. Conditionals are expressions, so an if chain can appear
// inside a let, a style spec, or a pipe argument. Unresolved
// variables and absent fields yield null, which renders as empty
// text, so missing data degrades instead of failing.
//
// # Collaborators
//
// Rendering reaches outside the engine only through the Runner,
// Files, and Environ interfaces, supplied as options. All three are
// optional; without them cmd() yields null, partials render empty,
// and $NAME references are null.
//
// # Concurrency
//
// Parse trees are immutable and cached per source text. A Template
// may render from multiple goroutines concurrently as long as each
// call uses its own Env.
package lang
