package cmd

import (
	"context"
	"errors"

	"github.com/ardnew/quill/cli/cmd/repl"
	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/shell"
)

// Repl starts the interactive session, or executes a single command
// line when -c/--command was given.
type Repl struct{}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	sh, err := newShell(ctx)
	if err != nil {
		return err
	}

	if line := commandLineFrom(ctx); line != "" {
		return runCommandLine(ctx, sh, line)
	}

	ktx := kongContextFrom(ctx)

	cacheDir, ok := ktx.Model.Vars()[CacheIdentifier]
	if !ok {
		panic("internal error: cache path undefined")
	}

	return repl.Run(ctx, sh, cacheDir, log.With())
}

// runCommandLine executes one line through the interpreter, mapping a
// clean exit request to success. Like the interactive loop, a failed
// command reports through its own diagnostics rather than the process
// exit code; only the exit builtin sets a code.
func runCommandLine(ctx context.Context, sh *shell.Shell, line string) error {
	err := sh.Exec(ctx, line)

	var exit shell.ExitRequest
	if errors.As(err, &exit) {
		if exit.Code == 0 {
			return nil
		}

		return exit
	}

	return err
}
