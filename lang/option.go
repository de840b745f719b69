package lang

import (
	"context"
	"time"

	"github.com/ardnew/quill/log"
)

// Default limits applied when no option overrides them.
//
//nolint:gochecknoglobals
var (
	// DefaultMaxDepth bounds transitive partial inclusion.
	DefaultMaxDepth = 16

	// DefaultTimeout bounds each cmd() invocation.
	DefaultTimeout = 5 * time.Second
)

// Runner executes a command line on behalf of cmd() directives.
// The returned string is the command's combined standard output.
type Runner interface {
	Run(ctx context.Context, line string) (string, error)
}

// Files resolves the paths named by {>path} partial references.
type Files interface {
	ReadFile(path string) ([]byte, error)
}

// Environ reads process environment variables for $NAME references.
type Environ interface {
	Get(name string) (string, bool)
}

// Template is a parsed template ready to render.
// The parse tree is immutable and shared, so a single Template may
// render concurrently from multiple goroutines as long as each call
// uses its own Env.
type Template struct {
	root   *groupNode
	source string

	runner  Runner
	files   Files
	environ Environ

	opts   optionsKey
	logger log.Logger
}

// optionsKey collects the limit options.
type optionsKey struct {
	maxDepth int
	timeout  time.Duration
}

// Option configures a Template during Parse.
type Option func(*Template)

// applyDefaults initializes a Template with default options.
func applyDefaults(t *Template) {
	t.opts.maxDepth = DefaultMaxDepth
	t.opts.timeout = DefaultTimeout
}

// applyOptions applies the given options to a Template.
func applyOptions(t *Template, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
}

// WithMaxDepth limits how deeply partials may include other partials.
func WithMaxDepth(depth int) Option {
	return func(t *Template) {
		t.opts.maxDepth = depth
	}
}

// WithTimeout limits how long each cmd() invocation may run.
func WithTimeout(d time.Duration) Option {
	return func(t *Template) {
		t.opts.timeout = d
	}
}

// WithRunner supplies the executor for cmd() directives.
// Without a runner, cmd() yields null.
func WithRunner(r Runner) Option {
	return func(t *Template) {
		t.runner = r
	}
}

// WithFiles supplies the file reader for {>path} partials.
// Without a reader, partials render as empty text.
func WithFiles(f Files) Option {
	return func(t *Template) {
		t.files = f
	}
}

// WithEnviron supplies the process environment for $NAME references.
// Without one, every $NAME yields null.
func WithEnviron(env Environ) Option {
	return func(t *Template) {
		t.environ = env
	}
}

// WithLogger sets the logger used during parsing and rendering.
func WithLogger(logger log.Logger) Option {
	return func(t *Template) {
		t.logger = logger
	}
}

// Source returns the original template source text.
func (t *Template) Source() string {
	return t.source
}
