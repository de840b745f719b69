package repl

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/quill/lang"
)

// ctrlCommands are the available control commands, entered with a
// leading colon in either mode.
var ctrlCommands = []string{
	"help", "config", "reload", "vars", "calc", "history", "clear", "quit",
}

// langKeywords are template-language words offered alongside variable
// names in template mode.
var langKeywords = []string{
	"let", "const", "if", "else", "for", "in", "cmd", "true", "false",
	"equals", "not_equals", "equals_ignore_case",
	"contains", "not_contains", "starts_with", "ends_with", "matches",
	"not_in", "greater", "greater_equals", "less", "less_equals",
	"length_equals", "length_greater", "length_less",
	"is_empty", "not_empty", "is_number", "is_integer",
}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, the member-access dot, and template
// operator/punctuation characters. Hyphens are intentionally excluded because
// template identifiers may contain them (e.g., path-pretty).
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '$':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Words are delimited by whitespace, dots, and
// operator/punctuation characters.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dot-separated prefix path leading up to the current
// word, considering only the contiguous member-access chain. For input
// "x && git.working.ch" with the word "ch", the parent path is "git.working".
// Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	prefix = strings.TrimRight(prefix, ".")

	if prefix == "" {
		return ""
	}

	// Capture the contiguous run of identifier and dot characters
	// immediately before the word.
	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r == '.' {
			pos -= size

			continue
		}

		if isWordBoundary(r) {
			break
		}

		pos -= size
	}

	result := strings.TrimSpace(prefix[pos:end])
	if result == "" {
		return ""
	}

	return result
}

// templateCandidates returns the names that are valid completions for
// the given parent path in template mode. For an empty parent, returns
// all root variable names plus language keywords and pipe functions.
// For a non-empty parent, resolves the dictionary chain and returns
// the names of direct children.
func (m model) templateCandidates(parent string) []string {
	if m.env == nil {
		return nil
	}

	if parent == "" {
		names := m.env.Names()
		names = append(names, langKeywords...)
		names = append(names, pipeFuncNames...)

		return names
	}

	// Resolve the parent path segment by segment.
	segments := strings.Split(parent, ".")

	val, ok := m.env.Get(segments[0])
	if !ok {
		return nil
	}

	for _, seg := range segments[1:] {
		if val.Kind != lang.KindDict || val.Dict == nil {
			return nil
		}

		child, ok := val.Dict.Get(seg)
		if !ok {
			return nil
		}

		val = child
	}

	if val.Kind != lang.KindDict || val.Dict == nil {
		return nil
	}

	return val.Dict.Keys()
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. Control commands complete after a leading colon. Exec mode
// completes only the command position. Template mode completes variables,
// dictionary members, keywords, and pipe functions. When the word is empty
// after a dot (member access), all children return as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	var word string
	word, wordStart, wordEnd = wordBounds(input, m.input.Position())

	switch {
	case strings.HasPrefix(strings.TrimSpace(input), ":"):
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands

	case m.mode == modeExec:
		// Only the command position completes, and only once the word
		// has begun (keeps the hint text visible on an empty line).
		if word == "" || strings.TrimSpace(input[:wordStart]) != "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = m.commands

	default:
		parent := parentPath(input, wordStart)
		candidates = m.templateCandidates(parent)

		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			// Return all candidates as unfiltered matches.
			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		// Reserve room for a trailing ellipsis unless this entry is the
		// final one, which may fill the remaining width entirely.
		reserve := ellipsisWidth
		if i == len(matches)-1 {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Pipe functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, matchSelectedStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		style := base
		if slices.Contains(match.MatchedIndexes, i) {
			style = highlight
		}

		b.WriteString(style.Render(string(r)))
	}

	// The suffix is display only, completion inserts the bare name.
	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// formatValuePreview generates a short single-line preview of a
// template value for the variable listing.
func formatValuePreview(v lang.Value) string {
	switch v.Kind {
	case lang.KindString:
		s := strconv.Quote(v.Str)
		if len(s) > 40 {
			return s[:37] + "..."
		}

		return s

	case lang.KindDict:
		return fmt.Sprintf("{ %d keys }", v.Len())

	case lang.KindList:
		return fmt.Sprintf("[ %d items ]", v.Len())

	default:
		return v.Text()
	}
}

// isFunction checks if a name refers to a function that should display with
// "()". Only the template pipe functions and the command directive qualify.
func isFunction(name string) bool {
	return name == "cmd" || slices.Contains(pipeFuncNames, name)
}
