package log

// Option applies a configuration value to a config copy and returns it.
// Options compose left to right, so later options override earlier ones.
type Option func(config) config

// apply folds opts over cfg.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}
