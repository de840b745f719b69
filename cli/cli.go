package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/quill/cli/cmd"
	"github.com/ardnew/quill/pkg"
)

// CLI is the top-level command-line interface for quill.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Command string           `help:"Execute a single command line and exit" name:"command" placeholder:"LINE" short:"c"`
	Version kong.VersionFlag `help:"Print version information and quit"    short:"V"`

	Init   cmd.Init   `cmd:"" help:"Write the default configuration and prompt template"`
	Render cmd.Render `cmd:"" help:"Render a template from a file or stdin"`

	Repl cmd.Repl `cmd:"" default:"1" help:"Start the interactive shell"`
}

// Run executes the quill CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Title() + " (" + pkg.Credits() + ")",
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so logging is configured before parsing
	// begins. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but the early scan also catches boolean flags
	// like --log-pretty and --log-callsite.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolveYAML, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Attach the values commands retrieve from their context.
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithCommandLine(ctx, cli.Command)

	// Finalize logger configuration with all parsed values, including
	// TimeLayout and Callsite which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
