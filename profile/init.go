package profile

// Config returns the pprof mode, output directory, and quiet flag used to
// start the profiler.
type Config func() (mode, path string, quiet bool)

// New builds a Config by applying each option to an empty configuration.
func New(opts ...func(Config) Config) Config {
	cfg := Config(func() (string, string, bool) { return "", "", false })

	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// Start launches the profiler described by c and returns a handle that stops
// it.
//
// When the binary was built without the pprof tag, or when no mode is
// configured, the returned handle is a no-op. Start and Stop are always safe
// to call.
func (c Config) Start() interface{ Stop() } {
	mode, path, quiet := c()

	if mode == "" {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// WithMode returns a functional option that selects the profiler mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath returns a functional option that sets the profiler output
// directory.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet returns a functional option that suppresses the profiler's own
// logging, which would otherwise interleave with the interactive display.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

type ignore struct{}

func (ignore) Stop() {}
