// Package shell hosts the interactive side of quill: an embedded
// POSIX-style command interpreter, the configuration it runs under,
// and the bridge that feeds live session state to prompt templates.
//
// A [Shell] owns one persistent interpreter, so variables, functions,
// and the working directory persist across interactive lines. The
// builtins quill implements itself (cd, alias, unalias, export,
// source, exit) are routed out of the interpreter and handled here,
// keeping them in lockstep with the process environment that
// templates observe.
//
// Template rendering reaches the outside world only through the
// collaborator types in this package: [Runner] executes command
// directives in a throwaway interpreter, [Partials] resolves include
// paths against the configured partial directory, and the process
// environment answers variable lookups. Each render also receives a
// snapshot of session state, including a git summary for the current
// directory, as its root variables.
package shell
