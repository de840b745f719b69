package shell

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Aliases is a mutable, concurrency safe alias table. The zero value
// is not usable, construct with NewAliases.
type Aliases struct {
	mu   sync.RWMutex
	defs map[string]string
}

// NewAliases builds a table from the configured definitions. The map
// is copied, so later config mutations do not leak in.
func NewAliases(defs map[string]string) *Aliases {
	a := &Aliases{defs: make(map[string]string, len(defs))}
	maps.Copy(a.defs, defs)

	return a
}

// Set defines or replaces an alias.
func (a *Aliases) Set(name, expansion string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.defs[name] = expansion
}

// Unset removes an alias, reporting whether it existed.
func (a *Aliases) Unset(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.defs[name]
	delete(a.defs, name)

	return ok
}

// Get returns the expansion of name.
func (a *Aliases) Get(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	def, ok := a.defs[name]

	return def, ok
}

// Names returns every alias name in sorted order.
func (a *Aliases) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return slices.Sorted(maps.Keys(a.defs))
}

// All returns a snapshot of the table.
func (a *Aliases) All() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return maps.Clone(a.defs)
}

// Expand rewrites the first word of line through the alias table,
// following nested definitions until a name repeats or nothing
// matches. Only the command position is rewritten, arguments pass
// through untouched.
func (a *Aliases) Expand(line string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[string]bool)

	for {
		word, rest := splitWord(line)

		def, ok := a.defs[word]
		if !ok || seen[word] {
			return line
		}

		seen[word] = true
		line = def + rest
	}
}

// splitWord cuts line at the first whitespace rune, keeping the
// remainder intact so argument spacing survives expansion.
func splitWord(line string) (word, rest string) {
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		return line[:i], line[i:]
	}

	return line, ""
}
