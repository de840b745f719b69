package lang

import (
	"log/slog"
	"slices"
)

// binding is a single named slot in a scope.
type binding struct {
	val Value
	mut bool
}

// Env is a chain of lexical scopes mapping names to values.
// Each template body (conditional arm, loop iteration) evaluates in a
// child scope, so bindings introduced there vanish when the body ends.
//
// Env is not safe for concurrent use. Renders that must not interfere
// should each receive their own Env.
type Env struct {
	outer *Env
	store map[string]binding
}

// NewEnv creates an empty root scope.
func NewEnv() *Env {
	return &Env{store: make(map[string]binding)}
}

// Child creates a scope nested inside e.
// Lookups fall through to e; new bindings shadow it.
func (e *Env) Child() *Env {
	return &Env{outer: e, store: make(map[string]binding)}
}

// Get resolves name through the scope chain, innermost first.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.outer {
		if b, ok := s.store[name]; ok {
			return b.val, true
		}
	}

	return Null, false
}

// Let declares or rebinds a mutable variable in the current scope.
// A name already declared const in this scope cannot be redeclared.
func (e *Env) Let(name string, v Value) error {
	if b, ok := e.store[name]; ok && !b.mut {
		return ErrReassign.With(slog.String("name", name))
	}

	e.store[name] = binding{val: v, mut: true}

	return nil
}

// Const declares an immutable variable in the current scope.
// Declaring a name already bound in this scope fails, whether the
// existing binding is mutable or not.
func (e *Env) Const(name string, v Value) error {
	if _, ok := e.store[name]; ok {
		return ErrReassign.With(slog.String("name", name))
	}

	e.store[name] = binding{val: v, mut: false}

	return nil
}

// Assign rebinds an existing variable, searching the scope chain
// innermost first. Assigning to a const binding or to an undeclared
// name fails.
func (e *Env) Assign(name string, v Value) error {
	for s := e; s != nil; s = s.outer {
		b, ok := s.store[name]
		if !ok {
			continue
		}

		if !b.mut {
			return ErrReassign.With(slog.String("name", name))
		}

		s.store[name] = binding{val: v, mut: true}

		return nil
	}

	return ErrUndefined.With(slog.String("name", name))
}

// Names returns every name visible from this scope, sorted.
// Shadowed outer bindings appear once.
func (e *Env) Names() []string {
	seen := make(map[string]struct{})

	for s := e; s != nil; s = s.outer {
		for name := range s.store {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
