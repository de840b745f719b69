package shell

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ardnew/quill/lang"
	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/pkg"
)

// Shell ties the template engine to a persistent command interpreter
// sharing one process environment. Exec and Render may not be called
// concurrently with each other.
type Shell struct {
	config     Config
	configPath string
	fsys       afero.Fs
	logger     log.Logger

	aliases  *Aliases
	partials Partials
	commands *Runner

	parser *syntax.Parser
	runner *interp.Runner

	stdin          io.Reader
	stdout, stderr io.Writer

	exited   bool
	exitCode int
}

// Option configures a Shell during construction.
type Option func(*Shell)

// WithStdio redirects the interpreter's standard streams.
func WithStdio(in io.Reader, out, errw io.Writer) Option {
	return func(s *Shell) { s.stdin, s.stdout, s.stderr = in, out, errw }
}

// WithLogger routes diagnostics through logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Shell) { s.logger = logger }
}

// WithFs substitutes the filesystem used for partials and for
// configuration reloads.
func WithFs(fsys afero.Fs) Option {
	return func(s *Shell) { s.fsys = fsys }
}

// WithConfigPath records where the configuration was loaded from so
// Reload can reread it.
func WithConfigPath(path string) Option {
	return func(s *Shell) { s.configPath = path }
}

// New builds a shell around cfg. The interpreter persists for the
// life of the Shell, so variables, functions, and directory changes
// carry across Exec calls.
func New(ctx context.Context, cfg Config, opts ...Option) (*Shell, error) {
	s := &Shell{
		config: cfg,
		fsys:   afero.NewOsFs(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.aliases = NewAliases(cfg.Aliases)
	s.partials = NewPartials(s.fsys, cfg.Partials)
	s.commands = NewRunner()
	s.parser = syntax.NewParser(syntax.Variant(syntax.LangBash))

	s.applyPath(ctx)

	runner, err := interp.New(
		interp.StdIO(s.stdin, s.stdout, s.stderr),
		interp.Env(processEnv{}),
		interp.CallHandler(s.callHandler),
		interp.ExecHandlers(s.execBuiltin),
	)
	if err != nil {
		return nil, err
	}

	s.runner = runner

	s.logger.TraceContext(ctx, "shell ready",
		slog.String("config", s.configPath),
		slog.Int("aliases", len(cfg.Aliases)))

	return s, nil
}

// applyPath publishes the munged PATH to the process environment.
func (s *Shell) applyPath(ctx context.Context) {
	if len(s.config.Path.Prepend)+len(s.config.Path.Append) == 0 {
		return
	}

	munged := s.config.MungePath()

	if err := os.Setenv("PATH", munged); err != nil {
		s.logger.WarnContext(ctx, "apply path", slog.Any("error", err))

		return
	}

	s.logger.DebugContext(ctx, "apply path", slog.String("value", munged))
}

// Config returns the active configuration.
func (s *Shell) Config() Config { return s.config }

// Aliases returns the live alias table.
func (s *Shell) Aliases() *Aliases { return s.aliases }

// ConfigPath returns the file Reload rereads, empty when the shell
// was built without one.
func (s *Shell) ConfigPath() string { return s.configPath }

// Reload rereads the configuration file and applies it to the
// running session. Aliases reset to the configured table.
func (s *Shell) Reload(ctx context.Context) error {
	if s.configPath == "" {
		return nil
	}

	cfg, err := LoadConfig(ctx, s.fsys, s.configPath)
	if err != nil {
		return err
	}

	s.config = cfg
	s.aliases = NewAliases(cfg.Aliases)
	s.partials = NewPartials(s.fsys, cfg.Partials)
	s.applyPath(ctx)

	s.logger.InfoContext(ctx, "config reloaded",
		slog.String("path", s.configPath))

	return nil
}

// Exec runs one interactive line to completion on the persistent
// interpreter. The exit builtin surfaces as an ExitRequest. An
// ordinary nonzero exit reports nil because the command already
// wrote its own diagnostics.
func (s *Shell) Exec(ctx context.Context, line string) error {
	expanded := s.aliases.Expand(line)

	s.logger.TraceContext(ctx, "exec line",
		slog.String("line", expanded))

	prog, err := s.parser.Parse(strings.NewReader(expanded), pkg.Name)
	if err != nil {
		return err
	}

	err = s.runner.Run(ctx, prog)

	// A cd may have moved the process working directory.
	if dirErr := interp.Dir("")(s.runner); dirErr != nil {
		s.logger.WarnContext(ctx, "sync directory", slog.Any("error", dirErr))
	}

	if s.exited {
		return ExitRequest{Code: s.exitCode}
	}

	if err != nil {
		if _, ok := interp.IsExitStatus(err); ok {
			return nil
		}

		return err
	}

	return nil
}

// Render parses and renders one template against the live session.
func (s *Shell) Render(ctx context.Context, source string) (string, error) {
	tpl, err := lang.Parse(ctx, source,
		lang.WithRunner(s.commands),
		lang.WithFiles(s.partials),
		lang.WithEnviron(osEnviron{}),
		lang.WithTimeout(s.config.Timeout.Std()),
		lang.WithLogger(s.logger),
	)
	if err != nil {
		return "", err
	}

	return tpl.Render(ctx, s.TemplateEnv(ctx))
}

// Prompt renders the configured prompt template. Rendering problems
// are logged and yield a plain fallback, so the session always has a
// usable prompt.
func (s *Shell) Prompt(ctx context.Context) string {
	out, err := s.Render(ctx, s.config.Prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "render prompt", slog.Any("error", err))

		return promptMark() + " "
	}

	return out
}

// Greeting returns the login banner, or empty when suppressed by
// configuration or by a ~/.hushlogin file.
func (s *Shell) Greeting() string {
	if !s.config.Greeting {
		return ""
	}

	if home := homeDir(); home != "" {
		if _, err := s.fsys.Stat(filepath.Join(home, ".hushlogin")); err == nil {
			return ""
		}
	}

	banner := pkg.Title()

	if host := hostname(); host != "" {
		banner += " on " + host
	}

	return banner
}

// TemplateEnv builds the root variable snapshot for one render. It
// is also what interactive completion and variable listings inspect.
func (s *Shell) TemplateEnv(ctx context.Context) *lang.Env {
	var (
		cwd  = workDir()
		home = homeDir()
		who  = username()
	)

	env := lang.NewEnv()

	bind := []struct {
		name string
		val  lang.Value
	}{
		{"user", lang.NewString(who)},
		{"host", lang.NewString(hostname())},
		{"pid", lang.NewNumber(float64(os.Getpid()))},
		{"path", lang.NewString(cwd)},
		{"path-folder", lang.NewString(Folder(cwd, who))},
		{"path-pretty", lang.NewString(ContractHome(cwd, home))},
		{"path-short", lang.NewString(CondensePath(cwd, home))},
		{"prompt", lang.NewString(promptMark())},
		{"git", GitStatus(ctx, cwd).Value()},
	}

	for _, b := range bind {
		if err := env.Let(b.name, b.val); err != nil {
			s.logger.WarnContext(ctx, "bind root variable",
				slog.String("name", b.name),
				slog.Any("error", err))
		}
	}

	return env
}
