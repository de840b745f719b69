// Package cli contains the command line interface for quill.
//
// # Usage
//
// Running quill with no command starts the interactive shell:
//
//	quill
//
// A single command line can be executed without entering the shell:
//
//	quill -c 'git status'
//
// The remaining subcommands operate on the same configuration and
// template environment as the interactive session:
//
//	quill init            # write the default config and prompt template
//	quill render prompt   # render a template file
//	quill render --vars   # dump the template environment as YAML
//
// The -V flag prints the version and authors without starting a session.
//
// # Configuration
//
// Flags may be set persistently in the YAML configuration file, which is
// shared with the shell's own settings. Nested mappings are flattened into
// hyphen-joined flag names, so this file:
//
//	log:
//	  level: debug
//	  format: text
//
// is equivalent to passing --log-level=debug --log-format=text. Values
// given on the command line override the file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-callsite: Include callsite information in log output
//   - --log-pretty: Enable colorized pretty printing
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/quill/pprof)
//
// # Examples
//
//	# Debug logging while in the shell
//	quill --log-level=debug
//
//	# Render the prompt template once with CPU profiling
//	quill --pprof-mode=cpu render prompt
package cli
