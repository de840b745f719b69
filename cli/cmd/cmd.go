package cmd

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/shell"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// commandLineKey is used to store the -c/--command line in context.Context.
type commandLineKey struct{}

// WithCommandLine returns a new context.Context carrying the one-shot
// command line given with -c/--command. An empty line means interactive.
func WithCommandLine(ctx context.Context, line string) context.Context {
	return context.WithValue(ctx, commandLineKey{}, line)
}

func commandLineFrom(ctx context.Context) string {
	line, _ := ctx.Value(commandLineKey{}).(string)

	return line
}

// newShell constructs the session shell from the configuration file
// recorded in the kong context. The same construction backs the
// interactive loop and the one-shot subcommands, so both see identical
// aliases, partials, and template variables.
func newShell(ctx context.Context) (*shell.Shell, error) {
	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	cfg, err := shell.LoadConfig(ctx, afero.NewOsFs(), confPath)
	if err != nil {
		return nil, ErrLoadConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	return shell.New(ctx, cfg,
		shell.WithConfigPath(confPath),
		shell.WithLogger(log.With()),
	)
}
