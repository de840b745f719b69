package shell

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardnew/mung"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"github.com/ardnew/quill/lang"
	"github.com/ardnew/quill/pkg"
)

// DefaultHistoryLimit caps the interactive history file when the
// configuration does not say otherwise.
const DefaultHistoryLimit = 500

// DefaultPrompt is the prompt template installed by init and used
// whenever the configuration omits one. It renders identity, the
// contracted working directory, and repository state when inside a
// work tree, ending with the traditional mark.
const DefaultPrompt = `<s.green>{user : $USER}@{host}</s> <s.cyan>{path-pretty}</s>` +
	`{if git.in-repo {<s.magenta> {git.branch}</s>` +
	`{if git.branch-status {<s.red> {git.branch-status}</s>}}` +
	`{if git.status {<s.yellow> {git.status}</s>}}}}` +
	` {prompt}{' '}`

// Duration wraps time.Duration with the text forms used in
// configuration files, so values like "750ms" and "5s" round-trip.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = Duration(v)

	return nil
}

// Std returns the wrapped standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every user-facing setting of the shell. Fields absent
// from the configuration file keep their defaults, so a sparse file
// overrides only what it names.
type Config struct {
	// Prompt is the template rendered before each interactive line.
	Prompt string `yaml:"prompt"`

	// Partials is the directory searched for template includes.
	Partials string `yaml:"partials"`

	// Aliases seeds the interactive alias table.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// History controls persistence of interactive input.
	History HistoryConfig `yaml:"history"`

	// Timeout bounds command directives during template renders.
	Timeout Duration `yaml:"timeout"`

	// Greeting enables the login banner.
	Greeting bool `yaml:"greeting"`

	// Log selects the default diagnostic level and format.
	Log LogConfig `yaml:"log"`

	// Path amends the PATH variable at startup.
	Path PathConfig `yaml:"path"`
}

// HistoryConfig controls the interactive history file.
type HistoryConfig struct {
	// File overrides the history location under the cache directory.
	File string `yaml:"file,omitempty"`

	// Limit caps the number of retained entries.
	Limit int `yaml:"limit"`
}

// LogConfig mirrors the command line logging options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PathConfig lists directories merged into PATH, prepends first.
// Entries already present move rather than duplicate.
type PathConfig struct {
	Prepend []string `yaml:"prepend,omitempty"`
	Append  []string `yaml:"append,omitempty"`
}

// DefaultConfig returns the settings used before any file is read.
func DefaultConfig() Config {
	return Config{
		Prompt:   DefaultPrompt,
		Partials: filepath.Join(pkg.ConfigDir(), "partials"),
		History:  HistoryConfig{Limit: DefaultHistoryLimit},
		Timeout:  Duration(lang.DefaultTimeout),
		Greeting: true,
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads the configuration at path, layering it over the
// defaults. A missing file is not an error, it simply yields the
// defaults. The prompt template is normalized here so files can
// spread it over indented lines.
func LoadConfig(ctx context.Context, fsys afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return cfg, err
	}

	if err := yaml.UnmarshalContext(ctx, data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	cfg.Prompt = lang.Normalize(cfg.Prompt)

	return cfg, nil
}

// Dump encodes the configuration as YAML.
func (c Config) Dump(ctx context.Context) ([]byte, error) {
	return yaml.MarshalContext(ctx, c, yaml.Indent(2))
}

// MungePath merges the configured prepend and append lists into the
// current PATH value, deduplicating entries while preserving order.
// The munged value is returned, not applied.
func (c Config) MungePath() string {
	delim := string(os.PathListSeparator)

	merged := mung.Make(
		mung.WithSubjectItems(os.Getenv("PATH")),
		mung.WithDelim(delim),
		mung.WithPrefixItems(c.Path.Prepend...),
	).String()

	if len(c.Path.Append) > 0 {
		merged = mung.Make(
			mung.WithSubjectItems(strings.Join(c.Path.Append, delim)),
			mung.WithDelim(delim),
			mung.WithPrefixItems(merged),
		).String()
	}

	return merged
}
