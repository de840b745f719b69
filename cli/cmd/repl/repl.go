package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/quill/lang"
	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/shell"
)

// execDoneMsg is sent when a shell command line finishes running.
type execDoneMsg struct{ err error }

// editConfigMsg is sent when config editing completes and the shell
// reloaded successfully.
type editConfigMsg struct{}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-parse error.
type editErrorMsg struct{ err error }

const (
	tmplPrompt = "{} "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Controls (prefix with ':' in either mode):

  :help      Print this cruft
  :vars      List template variables with value previews
  :config    Edit the configuration in external $EDITOR
  :reload    Reload the configuration from disk
  :calc      Evaluate an arithmetic expression
  :history   Show recent input history
  :clear     Clear screen
  :quit      Exit the shell

Usage:
  Type a command line to run it through the interpreter
  Press Esc to toggle between command and template modes
  Template mode renders each line with the prompt variables in scope
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within the current mode
  Use Alt+Up/Alt+Down to browse the other mode's history
    (restores your input when reaching the end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeExec inputMode = iota
	modeTemplate
)

// otherMode returns the mode that is not the given one.
func otherMode(mode inputMode) inputMode {
	if mode == modeExec {
		return modeTemplate
	}

	return modeExec
}

// Styles.
var (
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	matchStyle         = suggestionStyle.Bold(true)
	matchSelectedStyle = selectedStyle.Bold(true)
)

// formatTmplCommand formats the template echo line with prompt and input
// styled.
func formatTmplCommand(input string) string {
	return ctrlPromptStyle.Render(tmplPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and
// input styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the interactive session.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	shell            *shell.Shell
	logger           log.Logger
	history          *History
	historyIdx       int
	env              *lang.Env     // template variables for completion
	commands         []string      // exec-mode command candidates
	pathCmds         []string      // executables found on PATH
	pathVal          string        // PATH value behind pathCmds
	execPrompt       string        // rendered prompt for exec mode
	greeting         string        // login banner, printed once
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	exitCode         int
	mode             inputMode
	execText         string
	execCursor       int
	tmplText         string
	tmplCursor       int
}

// Run starts the interactive session on the given shell.
func Run(
	ctx context.Context,
	sh *shell.Shell,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
	)

	cfg := sh.Config()

	histPath := cfg.History.File
	if histPath == "" {
		histPath = baseHistory
	}

	if !filepath.IsAbs(histPath) {
		histPath = filepath.Join(cacheDir, histPath)
	}

	limit := cfg.History.Limit
	if limit <= 0 {
		limit = shell.DefaultHistoryLimit
	}

	history := NewHistory(histPath, limit)
	if err := history.Load(); err != nil {
		fmt.Printf("Warning: could not load history: %v\n", err)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, sh, history, sh.Greeting(), logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return err
	}

	// Propagate the exit builtin's status to the process.
	if fm, ok := final.(model); ok && fm.exitCode != 0 {
		return shell.ExitRequest{Code: fm.exitCode}
	}

	return nil
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sh *shell.Shell,
	history *History,
	greeting string,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	m := model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		shell:      sh,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		greeting:   greeting,
		width:      defaultWidth,
		mode:       modeExec,
	}

	refreshState(&m)

	return m
}

// refreshState recomputes everything derived from the shell: the rendered
// exec prompt, the template variable scope, and the command candidates.
// Called after any operation that may have changed the working directory,
// the environment, the aliases, or the configuration.
func refreshState(m *model) {
	ctx := m.ctxFunc()

	m.execPrompt = m.shell.Prompt(ctx)
	m.env = m.shell.TemplateEnv(ctx)

	if path := os.Getenv("PATH"); path != m.pathVal || m.pathCmds == nil {
		m.pathVal = path
		m.pathCmds = pathExecutables(path)
	}

	m.commands = commandCandidates(m.shell, m.pathCmds)

	if m.mode == modeExec {
		m.input.Prompt = m.execPrompt
	}
}

// commandCandidates merges builtins, aliases, and PATH executables into a
// sorted candidate list for exec-mode completion.
func commandCandidates(sh *shell.Shell, pathCmds []string) []string {
	seen := make(map[string]bool, len(pathCmds))
	names := make([]string, 0, len(pathCmds))

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}

		seen[name] = true
		names = append(names, name)
	}

	for _, name := range shell.Builtins() {
		add(name)
	}

	for _, name := range sh.Aliases().Names() {
		add(name)
	}

	for _, name := range pathCmds {
		add(name)
	}

	sort.Strings(names)

	return names
}

// pathExecutables scans each directory on the given PATH value and returns
// the names of regular executable files. Unreadable directories are skipped.
func pathExecutables(path string) []string {
	var names []string

	seen := map[string]bool{}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || seen[entry.Name()] {
				continue
			}

			// Stat resolves symlinks, common under /usr/bin.
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
				continue
			}

			seen[entry.Name()] = true
			names = append(names, entry.Name())
		}
	}

	return names
}

func (m model) Init() tea.Cmd {
	if m.greeting != "" {
		return tea.Sequence(
			tea.Println(hintStyle.Render(m.greeting)),
			textinput.Blink,
		)
	}

	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(m.input.Prompt) - 2

		return m, nil

	case execDoneMsg:
		var exit shell.ExitRequest
		if errors.As(msg.err, &exit) {
			m.quitting = true
			m.exitCode = exit.Code

			return m, tea.Quit
		}

		refreshState(&m)

		if msg.err != nil {
			return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
		}

		return m, nil

	case editConfigMsg:
		refreshState(&m)
		m.logger.TraceContext(m.ctxFunc(), "repl config updated")

		return m, tea.Println(
			resultStyle.Render("✔ — configuration saved and reloaded"),
		)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled."))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 — configuration left unchanged."))

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 — error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	// Completion / hint line.
	input := m.input.Value()

	// Check if we're viewing history
	viewingHistory := m.historyIdx < m.history.Len()

	// Check if cursor is inside a pipe function call
	cursor := m.input.Position()
	funcCall := detectFunctionCall(input, cursor)

	switch {
	case viewingHistory:
		// Show history position indicator
		pos := m.historyIdx + 1 // 1-based for display
		total := m.history.Len()
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			total)
		b.WriteString(hintStyle.Render(hint))
		b.WriteString("\n")

	case strings.TrimSpace(input) == "":
		// Empty or whitespace-only input: show hint.
		var hint string
		if m.mode == modeExec {
			hint = "Type a command, ':' for controls, or press Esc for template mode"
		} else {
			hint = "Type template source to render it (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))
		b.WriteString("\n")

	case funcCall.inCall && m.mode == modeTemplate:
		// Show function signature hint with current parameter highlighted
		signature, params := getSignature(funcCall.name)
		if signature != "" {
			hint := renderSignatureHint(signature, params, funcCall.argIndex)
			b.WriteString(hint)
			b.WriteString("\n")
		} else {
			// Function not found, show completion bar if available
			if len(m.matches) > 0 {
				bar := renderCandidateBar(
					m.matches, m.suggIdx, m.tabActive, m.width,
				)
				b.WriteString(bar)
				b.WriteString("\n")
			} else {
				b.WriteString("\n")
			}
		}

	case len(m.matches) > 0:
		// Render horizontal candidate bar.
		bar := renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width,
		)
		b.WriteString(bar)
		b.WriteString("\n")

	default:
		// Non-empty input but no matches: blank line.
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidates(1)

	case tea.KeyShiftTab:
		return m.cycleCandidates(-1)

	case tea.KeyUp:
		if msg.Alt {
			return m.historyAlt(-1)
		}

		return m.historyPrev()

	case tea.KeyDown:
		if msg.Alt {
			return m.historyAlt(1)
		}

		return m.historyNext()

	case tea.KeyShiftUp:
		return m.historyPrevInMode()

	case tea.KeyShiftDown:
		return m.historyNextInMode()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.altNavActive {
			m.altNavActive = false
		}

		return m.toggleMode()

	case tea.KeyRunes:
		// Check for space as "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		// Reset history index when typing
		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	// Reset history index when typing
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycleCandidates advances the tab selection by dir (1 forward, -1
// backward), wrapping at either end. The first press records the input so
// Esc can restore it; a sole candidate completes and confirms immediately.
func (m model) cycleCandidates(dir int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + dir + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		if dir > 0 {
			m.suggIdx = 0
		} else {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	// Update word boundaries for the replaced text.
	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	// Auto-confirm when the typed word already equals the sole candidate.
	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	// Reset both mode inputs after submission
	m.execText = ""
	m.execCursor = 0
	m.tmplText = ""
	m.tmplCursor = 0
	m.input.SetValue("")

	_, _ = m.history.WriteWithMode(input, m.mode)
	m.historyIdx = m.history.Len()

	// Control commands run the same way from either mode.
	if rest, ok := strings.CutPrefix(input, ":"); ok {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl control",
			slog.String("input", input),
		)

		return m.executeCommand(rest)
	}

	if m.mode == modeTemplate {
		return m.renderTemplate(input)
	}

	return m.execLine(input)
}

// shellCommand adapts a shell command line to the terminal-releasing exec
// protocol, so full-screen programs like editors and pagers get the real
// terminal. The interpreter owns the process's standard streams already,
// so the handed descriptors only satisfy the interface.
type shellCommand struct {
	shell   *shell.Shell
	line    string
	ctxFunc func() context.Context
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *shellCommand) Run() error {
	return c.shell.Exec(c.ctxFunc(), c.line)
}

func (c *shellCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *shellCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *shellCommand) SetStderr(w io.Writer) { c.stderr = w }

func (m model) execLine(input string) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec",
		slog.String("input", input),
	)

	// Echo with the prompt that was showing when the line was entered.
	echoCmd := tea.Println(m.execPrompt + inputStyle.Render(input))

	cmd := &shellCommand{
		shell:   m.shell,
		line:    input,
		ctxFunc: m.ctxFunc,
	}

	return m, tea.Sequence(echoCmd, tea.Exec(cmd, func(err error) tea.Msg {
		return execDoneMsg{err: err}
	}))
}

func (m model) renderTemplate(input string) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl render",
		slog.String("input", input),
	)

	echoCmd := tea.Println(formatTmplCommand(input))

	// Normalize so interactive lines behave like configured templates.
	out, err := m.shell.Render(m.ctxFunc(), lang.Normalize(input))
	if err != nil {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl render result",
			slog.String("result_type", "error"),
			slog.String("error", err.Error()),
		)

		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	// Rendered output carries its own styling.
	return m, tea.Sequence(echoCmd, tea.Println(out))
}

func (m model) executeCommand(
	input string,
) (model, tea.Cmd) {
	// Parse command and arguments
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCtrlCommand(input))

	cmd := parts[0]
	args := parts[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.Any("args", args),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echoCmd, tea.Println(m.listVars()))

	case "r", "reload":
		return m.reloadConfig(echoCmd)

	case "c", "config":
		var editCmd tea.Cmd

		m, editCmd = m.handleEdit()

		return m, tea.Sequence(echoCmd, editCmd)

	case "calc":
		return m.calc(echoCmd, strings.Join(args, " "))

	case "history":
		return m, tea.Sequence(echoCmd, tea.Println(m.listHistory()))

	case "clear":
		return m, tea.ClearScreen

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: :" + cmd + " (try :help)"),
		)
	}
}

func (m model) reloadConfig(echoCmd tea.Cmd) (model, tea.Cmd) {
	if err := m.shell.Reload(m.ctxFunc()); err != nil {
		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	refreshState(&m)

	return m, tea.Sequence(
		echoCmd,
		tea.Println(resultStyle.Render("✔ — configuration reloaded")),
	)
}

// calc evaluates an arithmetic expression with the template variables in
// scope. Hyphens in variable names become underscores, so the prompt's
// path-pretty is addressed as path_pretty.
func (m model) calc(echoCmd tea.Cmd, src string) (model, tea.Cmd) {
	if strings.TrimSpace(src) == "" {
		return m, tea.Sequence(
			echoCmd,
			tea.Println(hintStyle.Render("usage: :calc <expression>")),
		)
	}

	env := map[string]any{}

	if m.env != nil {
		for _, name := range m.env.Names() {
			if v, ok := m.env.Get(name); ok {
				env[strings.ReplaceAll(name, "-", "_")] = v.Interface()
			}
		}
	}

	out, err := expr.Eval(src, env)
	if err != nil {
		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return m, tea.Sequence(
		echoCmd,
		tea.Println(resultStyle.Render(fmt.Sprint(out))),
	)
}

func (m model) handleEdit() (model, tea.Cmd) {
	cmd := &editConfigCommand{
		shell:   m.shell,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return m, tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if !cmd.applied {
			return editCancelledMsg{}
		}

		return editConfigMsg{}
	})
}

// recallEntry loads the history entry at index i into the input line,
// switching modes when the entry was recorded in the other mode.
func recallEntry(m *model, i int) {
	entry, err := m.history.GetEntry(i)
	if err != nil {
		return
	}

	m.historyIdx = i

	if m.mode != entry.Mode {
		*m, _ = m.switchToMode(entry.Mode)
	}

	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(m, false)
}

// historyScan returns the index of the nearest entry in the given direction
// whose mode matches target, or -1 when none remains.
func (m *model) historyScan(dir int, target inputMode) int {
	for i := m.historyIdx + dir; 0 <= i && i < m.history.Len(); i += dir {
		entry, err := m.history.GetEntry(i)
		if err == nil && entry.Mode == target {
			return i
		}
	}

	return -1
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		recallEntry(&m, m.historyIdx-1)
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		recallEntry(&m, m.historyIdx+1)
	} else {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

func (m model) historyPrevInMode() (model, tea.Cmd) {
	if i := m.historyScan(-1, m.mode); i >= 0 {
		recallEntry(&m, i)
	}

	return m, nil
}

func (m model) historyNextInMode() (model, tea.Cmd) {
	if i := m.historyScan(1, m.mode); i >= 0 {
		recallEntry(&m, i)

		return m, nil
	}

	// Ran out of entries for this mode; drop back to the live input line.
	if m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// historyAlt browses the other mode's history. The first press records the
// live input; running past either end of that history restores it.
func (m model) historyAlt(dir int) (model, tea.Cmd) {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		m, _ = m.switchToMode(otherMode(m.mode))
	}

	if i := m.historyScan(dir, m.mode); i >= 0 {
		recallEntry(&m, i)

		return m, nil
	}

	m.altNavActive = false

	if m.altNavOrigMode != m.mode {
		m, _ = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

func (m model) listVars() string {
	if m.env == nil {
		return ""
	}

	var b strings.Builder

	for _, name := range m.env.Names() {
		v, ok := m.env.Get(name)
		if !ok {
			continue
		}

		preview := formatValuePreview(v)
		b.WriteString(fmt.Sprintf("  %s %s\n", name, hintStyle.Render(preview)))
	}

	return b.String()
}

func (m model) listHistory() string {
	entries := m.history.Entries()

	const show = 20

	start := 0
	if len(entries) > show {
		start = len(entries) - show
	}

	var b strings.Builder

	for i, entry := range entries[start:] {
		marker := "$ "
		if entry.Mode == modeTemplate {
			marker = "{}"
		}

		b.WriteString(fmt.Sprintf("  %4d %s %s\n",
			start+i+1, hintStyle.Render(marker), entry.Line))
	}

	return b.String()
}

// toggleMode switches between exec and template modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	return m.switchToMode(otherMode(m.mode))
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	// Save current mode's input
	if m.mode == modeExec {
		m.execText = m.input.Value()
		m.execCursor = m.input.Position()
	} else {
		m.tmplText = m.input.Value()
		m.tmplCursor = m.input.Position()
	}

	// Switch to target mode
	m.mode = mode
	if mode == modeExec {
		m.input.Prompt = m.execPrompt
		m.input.SetValue(m.execText)
		m.input.SetCursor(m.execCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(tmplPrompt)
		m.input.SetValue(m.tmplText)
		m.input.SetCursor(m.tmplCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
