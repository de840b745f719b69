package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/interp"
)

// ExitRequest unwinds the session when the exit builtin runs. Code
// carries the requested process exit status.
type ExitRequest struct {
	Code int
}

// Error implements error.
func (e ExitRequest) Error() string {
	return "exit " + strconv.Itoa(e.Code)
}

// builtinNames lists the commands quill implements itself rather
// than delegating to the interpreter. The interpreter would
// otherwise resolve most of these internally, against its own state
// instead of the process state that templates observe.
var builtinNames = []string{".", "alias", "cd", "exit", "export", "source", "unalias"}

// Builtins returns the names completed and intercepted as builtins.
func Builtins() []string {
	return slices.Clone(builtinNames)
}

const (
	builtinPrefix = "__quill_"
	builtinSuffix = "__"
)

// callHandler reroutes builtin invocations through the exec handler
// chain by renaming them before the interpreter recognizes them.
func (s *Shell) callHandler(_ context.Context, args []string) ([]string, error) {
	if len(args) == 0 || !slices.Contains(builtinNames, args[0]) {
		return args, nil
	}

	name := args[0]
	if name == "." {
		name = "source"
	}

	return append([]string{builtinPrefix + name + builtinSuffix}, args[1:]...), nil
}

// execBuiltin is the exec middleware that recognizes rerouted
// builtins and dispatches to their implementations. Everything else
// falls through to the next handler.
func (s *Shell) execBuiltin(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		name, ok := strings.CutPrefix(args[0], builtinPrefix)
		if !ok {
			return next(ctx, args)
		}

		name, ok = strings.CutSuffix(name, builtinSuffix)
		if !ok {
			return next(ctx, args)
		}

		switch name {
		case "cd":
			return s.cmdCd(ctx, args[1:])
		case "alias":
			return s.cmdAlias(ctx, args[1:])
		case "unalias":
			return s.cmdUnalias(ctx, args[1:])
		case "export":
			return s.cmdExport(ctx, args[1:])
		case "source":
			return s.cmdSource(ctx, args[1:])
		case "exit":
			return s.cmdExit(ctx, args[1:])
		}

		return next(ctx, args)
	}
}

// cmdCd changes the process working directory, so the prompt, git
// queries, and template renders all follow along.
func (s *Shell) cmdCd(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	var target string

	switch len(args) {
	case 0:
		target = homeDir()
	case 1:
		target = args[0]
	default:
		fmt.Fprintln(hc.Stderr, "cd: too many arguments")

		return interp.NewExitStatus(1)
	}

	if target == "-" {
		target = os.Getenv("OLDPWD")
		if target == "" {
			fmt.Fprintln(hc.Stderr, "cd: OLDPWD not set")

			return interp.NewExitStatus(1)
		}

		fmt.Fprintln(hc.Stdout, target)
	}

	prev := workDir()

	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(hc.Stderr, "cd: %v\n", err)

		return interp.NewExitStatus(1)
	}

	os.Setenv("OLDPWD", prev)
	os.Setenv("PWD", workDir())

	return nil
}

// cmdAlias defines aliases from name=value arguments, or prints the
// named (or all) definitions.
func (s *Shell) cmdAlias(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	if len(args) == 0 {
		defs := s.aliases.All()
		for _, name := range s.aliases.Names() {
			fmt.Fprintf(hc.Stdout, "alias %s=%s\n", name, strconv.Quote(defs[name]))
		}

		return nil
	}

	status := 0

	for _, arg := range args {
		name, def, ok := strings.Cut(arg, "=")
		if ok {
			s.aliases.Set(name, def)

			continue
		}

		if def, found := s.aliases.Get(name); found {
			fmt.Fprintf(hc.Stdout, "alias %s=%s\n", name, strconv.Quote(def))
		} else {
			fmt.Fprintf(hc.Stderr, "alias: %s: not found\n", name)

			status = 1
		}
	}

	if status != 0 {
		return interp.NewExitStatus(uint8(status))
	}

	return nil
}

// cmdUnalias removes alias definitions. The -a flag clears the whole
// table.
func (s *Shell) cmdUnalias(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	if len(args) == 0 {
		fmt.Fprintln(hc.Stderr, "unalias: usage: unalias [-a] name ...")

		return interp.NewExitStatus(2)
	}

	if args[0] == "-a" {
		for _, name := range s.aliases.Names() {
			s.aliases.Unset(name)
		}

		return nil
	}

	status := 0

	for _, name := range args {
		if !s.aliases.Unset(name) {
			fmt.Fprintf(hc.Stderr, "unalias: %s: not found\n", name)

			status = 1
		}
	}

	if status != 0 {
		return interp.NewExitStatus(uint8(status))
	}

	return nil
}

// cmdExport publishes variables to the process environment, where
// subshells, command directives, and template lookups all read them.
// A bare name exports the interpreter's current value for it.
func (s *Shell) cmdExport(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	if len(args) == 0 {
		for _, pair := range slices.Sorted(slices.Values(os.Environ())) {
			fmt.Fprintf(hc.Stdout, "export %s\n", pair)
		}

		return nil
	}

	for _, arg := range args {
		name, val, ok := strings.Cut(arg, "=")
		if !ok {
			if vr := hc.Env.Get(name); vr.IsSet() {
				val = vr.String()
			}
		}

		if err := os.Setenv(name, val); err != nil {
			fmt.Fprintf(hc.Stderr, "export: %v\n", err)

			return interp.NewExitStatus(1)
		}
	}

	return nil
}

// cmdSource reads and executes a script in a subordinate interpreter
// wired to the same handlers and process environment. Exported
// variables, aliases, and directory changes persist. Unexported
// shell locals do not survive the subordinate interpreter.
func (s *Shell) cmdSource(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	if len(args) == 0 {
		fmt.Fprintln(hc.Stderr, "source: filename argument required")

		return interp.NewExitStatus(2)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(hc.Stderr, "source: %v\n", err)

		return interp.NewExitStatus(1)
	}

	prog, err := s.parser.Parse(bytes.NewReader(data), args[0])
	if err != nil {
		fmt.Fprintf(hc.Stderr, "source: %v\n", err)

		return interp.NewExitStatus(1)
	}

	sub, err := interp.New(
		interp.StdIO(hc.Stdin, hc.Stdout, hc.Stderr),
		interp.Env(processEnv{}),
		interp.Dir(hc.Dir),
		interp.CallHandler(s.callHandler),
		interp.ExecHandlers(s.execBuiltin),
		interp.Params(args[1:]...),
	)
	if err != nil {
		fmt.Fprintf(hc.Stderr, "source: %v\n", err)

		return interp.NewExitStatus(1)
	}

	return sub.Run(ctx, prog)
}

// cmdExit latches a session exit request. The interpreter finishes
// the current line, then Exec converts the latch into an
// ExitRequest.
func (s *Shell) cmdExit(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)

	code := 0

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(hc.Stderr, "exit: numeric argument required")

			n = 2
		}

		code = n
	}

	s.exited, s.exitCode = true, code

	return interp.NewExitStatus(uint8(code))
}
