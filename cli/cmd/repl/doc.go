// Package repl implements the interactive terminal session as a
// bubbletea program.
//
// Input runs in one of two modes. Exec mode hands completed lines to
// the persistent shell interpreter, suspending the UI so full-screen
// programs own the terminal. Template mode renders the line as a
// prompt template against the live session environment. Esc toggles
// between them, and lines prefixed with ':' invoke session controls
// (help, config, reload, vars, calc, history, clear, quit) from
// either mode.
//
// The line editor provides fuzzy completion over commands, template
// variables, and pipe functions, signature hints inside function
// calls, and a persistent dual-mode history with cross-mode
// navigation.
package repl
