package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/quill/log"
	"github.com/ardnew/quill/shell"
)

const defaultEditor = "vi"

// editConfigCommand implements [tea.ExecCommand] for the configuration
// edit-validate-retry loop. It copies the current configuration to a temp
// file, opens the user's editor, and validates the result before writing it
// back and reloading the shell. On parse error the user is prompted to
// re-edit; declining leaves the configuration file untouched.
type editConfigCommand struct {
	shell   *shell.Shell
	ctxFunc func() context.Context
	applied bool
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editConfigCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editConfigCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editConfigCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-validate-retry loop. It seeds the temp file with the
// configuration on disk, or the active settings when no file exists yet,
// opens the editor, and validates the result. If the user declines to
// re-edit after a parse error, it returns [ErrEditDeclined].
func (c *editConfigCommand) Run() error {
	ctx := c.ctxFunc()

	path := c.shell.ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		data, err = c.shell.Config().Dump(ctx)
		if err != nil {
			return fmt.Errorf("dump config: %w", err)
		}
	}

	content := string(data)

	// One temp file serves every retry of the loop.
	f, err := os.CreateTemp(os.TempDir(), "quill-config-*.yml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		r, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		// An emptied file means the user abandoned the edit.
		br := bufio.NewReader(r)
		if _, err := br.Peek(1); err != nil {
			return nil
		}

		edited, err := io.ReadAll(br)
		if err != nil {
			return err
		}

		// Validate against the same layering LoadConfig applies.
		cfg := shell.DefaultConfig()
		parseErr := yaml.UnmarshalContext(ctx, edited, &cfg)
		c.logger.TraceContext(
			ctx,
			"editor parse attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}

			if err := os.WriteFile(path, edited, 0o644); err != nil {
				return err
			}

			if err := c.shell.Reload(ctx); err != nil {
				return err
			}

			c.applied = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		// Carry the rejected content into the next iteration.
		data, readErr := os.ReadFile(tmpPath)
		if readErr != nil {
			return readErr
		}

		content = string(data)
	}
}

// runEditor launches the user's editor on the given file path and returns a
// reader over the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (io.Reader, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return f, nil
}
