// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// The package serves the diagnostics of an interactive shell: the session
// owns stdout, so the default logger writes to stderr, and the colorized
// pretty format is enabled by default for reading alongside a live prompt.
// Output format, minimum level, timestamp layout, and callsite reporting are
// all applied at logger creation time using functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("session started", slog.String("version", "1.0.0"))
//	logger.Error("config unreadable", slog.Any("error", err))
//
// # Configuration
//
// Configure the logger using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCallsite(true))
//
// # Adding Attributes
//
// Attributes can be added to the logger to be included in all subsequent
// log messages using the [Logger.With] method:
//
//	logger = logger.With(slog.String("component", "repl"))
//	logger.Info("input accepted") // includes component=repl
//
// # Context-Aware Logging
//
// Each logging level has both a context-aware and context-unaware variant:
//
//	logger.InfoContext(ctx, "rendering prompt")
//	logger.Info("message without context") // uses DefaultContextProvider
//
// Context-unaware functions internally call their context-aware counterparts
// using [DefaultContextProvider], which returns [context.TODO] by default.
//
// # Supported Levels
//
// The package supports five log levels: [LevelTrace], [LevelDebug],
// [LevelInfo], [LevelWarn], and [LevelError]. Messages below the configured
// level are discarded. Trace sits below the standard slog levels and carries
// the per-token and per-node diagnostics of the template pipeline.
//
// # Time Formatting
//
// Time formatting is configurable using [WithTimeLayout]. You can
// specify any named layout supported by the [time] package (such as
// "RFC3339" or "RFC3339Nano") or provide a custom layout string.
// An empty layout, or the name "none", omits timestamps entirely.
//
// # Output Formats
//
// Two output formats are supported: [FormatJSON] (default) and
// [FormatText]. Both have a colorized pretty variant, enabled by default,
// that styles keys and values with lipgloss and degrades to plain text when
// the terminal reports no color support.
//
// # Zero Value
//
// The zero [Logger] is inert. Every logging method returns without writing,
// so a Logger field needs no nil check before use.
package log
