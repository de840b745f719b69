package shell

import (
	"bytes"
	"context"
	"io"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes template command directives through a throwaway
// interpreter, capturing standard output. Every call builds a fresh
// interpreter so directives can never disturb interactive shell
// state, which also makes a Runner safe for concurrent renders.
type Runner struct{}

// NewRunner returns a command runner for template renders.
func NewRunner() *Runner { return &Runner{} }

// Run parses and executes line, returning everything written to
// standard output. Standard error is discarded, and a nonzero exit
// reports as an error with the partial output.
func (r *Runner) Run(ctx context.Context, line string) (string, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))

	prog, err := parser.Parse(strings.NewReader(line), "cmd")
	if err != nil {
		return "", err
	}

	var out bytes.Buffer

	run, err := interp.New(
		interp.StdIO(nil, &out, io.Discard),
		interp.Env(processEnv{}),
	)
	if err != nil {
		return "", err
	}

	err = run.Run(ctx, prog)

	return out.String(), err
}
