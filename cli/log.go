package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/quill/log"
)

// logFormat configures the logger format as a side effect of flag parsing
// via encoding.TextUnmarshaler.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler. Kong calls it while
// parsing --log-format, early enough that errors raised during the rest of
// parsing are reported in the requested format.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of flag parsing
// via encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler. Kong calls it while
// parsing --log-level, early enough to affect logging during the rest of
// parsing.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     logFormat `default:"text"    enum:"json,text"                   help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                                    help:"Set timestamp format."`
	Callsite   bool      `default:"false"                                      help:"Include callsite information."     negatable:""`
	Pretty     bool      `default:"true"                                       help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start finalizes logger configuration with all parsed values, including
// TimeLayout and Callsite which don't use TextUnmarshaler. The returned func
// marks the end of the session.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCallsite(f.Callsite),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("callsite", f.Callsite),
		slog.Bool("pretty", f.Pretty),
	)

	return func() {
		log.DebugContext(ctx, "session finished")
	}
}

// scan applies logger flags ahead of regular parsing so the logger is
// configured no matter where the flags sit on the command line.
//
// The logFormat and logLevel types configure the logger through
// TextUnmarshaler as Kong encounters them, but boolean flags like
// --log-pretty never pass through that interface. This pre-pass catches
// both kinds.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		negate := strings.HasPrefix(arg, "--no-log-")
		if !negate && !strings.HasPrefix(arg, "--log-") {
			continue
		}

		name, value, assigned := strings.Cut(arg, "=")

		switch name {
		case "--log-level":
			if !assigned {
				value, i = lookahead(args, i)
			}

			_ = f.Level.UnmarshalText([]byte(value))

		case "--log-format":
			if !assigned {
				value, i = lookahead(args, i)
			}

			_ = f.Format.UnmarshalText([]byte(value))

		case "--log-pretty", "--no-log-pretty":
			if v, ok := boolValue(value, assigned, negate); ok {
				f.Pretty = v
				log.Config(log.WithPretty(v))
			}

		case "--log-callsite", "--no-log-callsite":
			if v, ok := boolValue(value, assigned, negate); ok {
				f.Callsite = v
				log.Config(log.WithCallsite(v))
			}
		}
	}
}

// lookahead consumes the next argument as a flag value when it does not
// itself look like a flag. It returns the value and the updated index.
func lookahead(args []string, i int) (string, int) {
	if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
		return args[i+1], i + 1
	}

	return "", i
}

// boolValue resolves a boolean flag to its effective value. Bare flags are
// true, "=x" forms parse x, and the negated form inverts the result. The
// second result reports whether the value parsed.
func boolValue(value string, assigned, negate bool) (bool, bool) {
	v := true

	if assigned {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, false
		}

		v = parsed
	}

	return v != negate, true
}
