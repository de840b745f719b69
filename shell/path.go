package shell

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Folder reduces a directory path to the single component shown in
// compact prompts. The root directory stays "/", and the user's own
// home directory collapses to "~".
func Folder(path, username string) string {
	base := filepath.Base(filepath.Clean(path))

	if base == username && username != "" {
		return "~"
	}

	return base
}

// ContractHome rewrites path so the home directory prefix reads "~".
// Paths outside home are returned unchanged.
func ContractHome(path, home string) string {
	if home == "" {
		return path
	}

	if path == home {
		return "~"
	}

	if rest, ok := strings.CutPrefix(path, home+sep); ok {
		return "~" + sep + rest
	}

	return path
}

// CondensePath abbreviates every intermediate directory to its first
// rune, keeping the leading "~" or "/" and the final component whole:
// "~/projects/quill/lang" becomes "~/p/q/lang".
func CondensePath(path, home string) string {
	path = ContractHome(filepath.Clean(path), home)

	parts := strings.Split(path, sep)
	if len(parts) < 2 {
		return path
	}

	for i := 1; i < len(parts)-1; i++ {
		r, _ := utf8.DecodeRuneInString(parts[i])
		if r != utf8.RuneError {
			parts[i] = string(r)
		}
	}

	return strings.Join(parts, sep)
}

const sep = string(filepath.Separator)
