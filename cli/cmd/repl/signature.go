package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// pipeFuncNames lists the template pipe functions offered as completions.
var pipeFuncNames = []string{"filter", "match", "replace", "split"}

// pipeFuncSignatures defines signatures for the template pipe functions and
// the command directive.
var pipeFuncSignatures = map[string]struct {
	signature string
	params    []string
}{
	"split": {
		"split(separator, index)",
		[]string{"separator", "index"},
	},
	"match": {
		"match(pattern, group)",
		[]string{"pattern", "group"},
	},
	"replace": {
		"replace(pattern, replacement)",
		[]string{"pattern", "replacement"},
	},
	"filter": {
		"filter(field, value)",
		[]string{"field", "value"},
	},
	"cmd": {"cmd(command)", []string{"command"}},
}

// Styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall locates the cursor within a call's argument list.
type functionCall struct {
	name     string // function name left of the open paren
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside the argument list
}

// detectFunctionCall reports whether the cursor sits inside the argument
// list of a call and, if so, which function and which argument.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	open := openParenBefore(input, cursor)
	if open < 0 {
		return functionCall{}
	}

	name := callName(input[:open])
	if name == "" {
		return functionCall{}
	}

	return functionCall{
		name:     name,
		argIndex: argumentIndex(input[open+1 : cursor]),
		inCall:   true,
	}
}

// openParenBefore scans backward from cursor for the unmatched open paren
// enclosing it. It returns the paren's byte offset, or -1 when the cursor
// is not inside any call.
func openParenBefore(input string, cursor int) int {
	depth := 0

	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return i
			}

			depth--
		}
	}

	return -1
}

// callName returns the identifier ending input, or "" when the text does
// not end in a name. Dotted field paths and hyphenated variable names are
// part of the language, so '.', '_', and '-' all extend a name.
func callName(input string) string {
	start := len(input)

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	return input[start:]
}

func isNameRune(r rune) bool {
	switch {
	case r == '.' || r == '_' || r == '-':
		return true
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}

	return false
}

// argumentIndex counts the separating commas in the argument span left of
// the cursor, which is the zero-based index of the argument under the
// cursor. Commas nested in parentheses or inside single-quoted strings do
// not separate arguments.
func argumentIndex(span string) int {
	index, depth := 0, 0
	inString, escaped := false, false

	for _, r := range span {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '\'':
				inString = false
			}

			continue
		}

		switch r {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				index++
			}
		}
	}

	return index
}

// getSignature retrieves the signature for a given pipe function or
// directive name. Returns empty string if the name is not a function.
func getSignature(funcName string) (signature string, params []string) {
	if fn, ok := pipeFuncSignatures[funcName]; ok {
		return fn.signature, fn.params
	}

	return "", nil
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	name := signatureNameStyle.Render(signature[:openParen])

	if len(params) == 0 {
		return name + signatureStyle.Render("()")
	}

	var b strings.Builder

	b.WriteString(name)
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		if i == currentArgIdx {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
