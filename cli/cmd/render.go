package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/quill/lang"
)

// Render renders one template against the same root environment the
// interactive prompt sees, without entering the shell.
type Render struct {
	Vars bool `help:"Print the template environment as YAML and exit"`

	Source string `arg:"" default:"-" help:"Template source file or '-' for stdin" name:"source"`

	out io.Writer
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	sh, err := newShell(ctx)
	if err != nil {
		return err
	}

	if r.Vars {
		return r.dumpVars(ctx, sh.TemplateEnv(ctx))
	}

	var file *os.File
	if r.Source == "-" {
		file = os.Stdin
	} else {
		var err error

		file, err = os.Open(r.Source)
		if err != nil {
			return err
		}
		defer file.Close()
	}

	// Drain the source through an asynchronous read-ahead buffer so data
	// is pre-fetched while earlier chunks are processed.
	ra := readahead.NewReader(file)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return ErrReadTemplate.
			With(slog.String("source", r.Source)).
			Wrap(err)
	}

	out, err := sh.Render(ctx, string(data))
	if err != nil {
		return err
	}

	fmt.Fprintln(r.stdout(), out)

	return nil
}

// dumpVars writes the template environment as a YAML document.
func (r *Render) dumpVars(ctx context.Context, env *lang.Env) error {
	vars := make(map[string]any)

	for _, name := range env.Names() {
		if v, ok := env.Get(name); ok {
			vars[name] = v.Interface()
		}
	}

	data, err := yaml.MarshalContext(ctx, vars, yaml.Indent(2))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	_, err = r.stdout().Write(data)

	return err
}

func (r *Render) stdout() io.Writer {
	if r.out != nil {
		return r.out
	}

	return os.Stdout
}
