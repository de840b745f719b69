package repl

import "errors"

var (
	// ErrOutOfBounds reports a history lookup outside the recorded entries.
	ErrOutOfBounds = errors.New("index out of range")

	// ErrEditDeclined reports that the user abandoned the configuration
	// editor after a parse error rather than re-editing.
	ErrEditDeclined = errors.New("decline edit")
)
