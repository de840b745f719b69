package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolveYAML is a [kong.ConfigurationLoader] that reads flag values from the
// quill YAML configuration file.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolveYAML, "/path/to/config.yml")
//
// The YAML document is converted as follows:
//   - Nested mappings are flattened into hyphen-joined flag names
//   - Flag names with hyphens (e.g., "log-level") may use underscores
//     in the config file (e.g., "log_level")
//   - Sequences are converted to arrays
//   - Numbers are converted to strings, which Kong parses back into the
//     flag's declared type
//
// Example config file:
//
//	log:
//	  level: debug
//	  format: text
//	  pretty: true
//
// This configuration will be applied to Kong flags:
//
//	--log-level=debug
//	--log-format=text
//	--log-pretty=true
//
// Command-line flags override config file values. Sections without a
// matching flag, such as the shell's prompt and aliases, resolve to
// nothing here and are consumed by the shell's own loader instead.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	var raw map[string]any

	err := yaml.NewDecoder(r).Decode(&raw)
	if err != nil {
		// Parse error or empty file - flags keep their defaults
		return config{}, nil
	}

	flat := make(map[string]any, len(raw))
	flatten("", raw, flat)

	return config(flat), nil
}

// config implements [kong.Resolver] for flattened YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// No validation needed - the config was already parsed successfully
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but YAML keys
	// may use underscores. Try both forms.
	name := flag.Name
	underscoreName := strings.ReplaceAll(name, "-", "_")

	// Look up the value in our config
	if value, ok := r[name]; ok {
		return value, nil
	}

	// Try underscore variant
	if value, ok := r[underscoreName]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// flatten walks nested mappings, joining keys with hyphens so that a
// section like "log: {level: debug}" resolves the --log-level flag.
func flatten(prefix string, in map[string]any, out map[string]any) {
	for key, val := range in {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		switch v := val.(type) {
		case map[string]any:
			flatten(name, v, out)

		case []any:
			list := make([]any, len(v))
			for i, elem := range v {
				list[i] = stringify(elem)
			}

			out[name] = list

		default:
			out[name] = stringify(val)
		}
	}
}

// stringify converts numeric scalars to strings.
// Kong requires numbers as strings for parsing.
func stringify(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)

	case int64:
		return strconv.FormatInt(n, 10)

	case uint64:
		return strconv.FormatUint(n, 10)

	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)

	default:
		return v
	}
}
