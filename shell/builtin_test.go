package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShell_CdBuiltin(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	s, out, errOut := newTestShell(t, DefaultConfig())

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := s.Exec(context.Background(), "cd nested"); err != nil {
		t.Fatalf("Exec(cd) error = %v", err)
	}

	if got := workDir(); got != sub {
		t.Errorf("workDir() = %q, want %q", got, sub)
	}

	// The interpreter must resolve relative paths from the new
	// directory on the next line.
	if err := s.Exec(context.Background(), "echo ok > marker"); err != nil {
		t.Fatalf("Exec(redirect) error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(sub, "marker")); err != nil {
		t.Errorf("marker not created in new directory: %v", err)
	}

	if err := s.Exec(context.Background(), "cd -"); err != nil {
		t.Fatalf("Exec(cd -) error = %v", err)
	}

	if got := workDir(); got != dir {
		t.Errorf("workDir() after cd - = %q, want %q", got, dir)
	}

	if !strings.Contains(out.String(), dir) {
		t.Errorf("cd - output = %q, want previous directory echoed", out.String())
	}

	if err := s.Exec(context.Background(), "cd /definitely/not/here"); err != nil {
		t.Fatalf("Exec(cd missing) error = %v, want nil with status", err)
	}

	if !strings.Contains(errOut.String(), "cd:") {
		t.Errorf("stderr = %q, want cd diagnostic", errOut.String())
	}
}

func TestShell_AliasBuiltin(t *testing.T) {
	s, out, errOut := newTestShell(t, DefaultConfig())

	if err := s.Exec(context.Background(), "alias ll='ls -la'"); err != nil {
		t.Fatalf("Exec(alias) error = %v", err)
	}

	if def, ok := s.Aliases().Get("ll"); !ok || def != "ls -la" {
		t.Errorf("Get(ll) = %q, %t, want %q, true", def, ok, "ls -la")
	}

	if err := s.Exec(context.Background(), "alias"); err != nil {
		t.Fatalf("Exec(alias list) error = %v", err)
	}

	if !strings.Contains(out.String(), `alias ll="ls -la"`) {
		t.Errorf("alias list = %q, want ll definition", out.String())
	}

	if err := s.Exec(context.Background(), "alias absent"); err != nil {
		t.Fatalf("Exec(alias absent) error = %v", err)
	}

	if !strings.Contains(errOut.String(), "not found") {
		t.Errorf("stderr = %q, want not found diagnostic", errOut.String())
	}
}

func TestShell_UnaliasBuiltin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aliases = map[string]string{"a": "echo a", "b": "echo b"}

	s, _, _ := newTestShell(t, cfg)

	if err := s.Exec(context.Background(), "unalias a"); err != nil {
		t.Fatalf("Exec(unalias) error = %v", err)
	}

	if _, ok := s.Aliases().Get("a"); ok {
		t.Errorf("alias a survived unalias")
	}

	if err := s.Exec(context.Background(), "unalias -a"); err != nil {
		t.Fatalf("Exec(unalias -a) error = %v", err)
	}

	if got := s.Aliases().Names(); len(got) != 0 {
		t.Errorf("Names() = %v, want empty after unalias -a", got)
	}
}

func TestShell_ExportBuiltin(t *testing.T) {
	t.Setenv("QUILL_EXPORTED", "")

	s, _, _ := newTestShell(t, DefaultConfig())

	if err := s.Exec(context.Background(), "export QUILL_EXPORTED=live"); err != nil {
		t.Fatalf("Exec(export) error = %v", err)
	}

	if got := os.Getenv("QUILL_EXPORTED"); got != "live" {
		t.Errorf("Getenv() = %q, want %q", got, "live")
	}

	// Exported values must be visible to template renders.
	got, err := s.Render(context.Background(), "{$QUILL_EXPORTED}")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got != "live" {
		t.Errorf("Render() = %q, want %q", got, "live")
	}
}

func TestShell_ExportBareName(t *testing.T) {
	t.Setenv("QUILL_BARE", "")
	os.Unsetenv("QUILL_BARE")

	s, _, _ := newTestShell(t, DefaultConfig())

	if err := s.Exec(context.Background(), "QUILL_BARE=local"); err != nil {
		t.Fatalf("Exec(assign) error = %v", err)
	}

	if got := os.Getenv("QUILL_BARE"); got != "" {
		t.Fatalf("Getenv() = %q before export, want empty", got)
	}

	if err := s.Exec(context.Background(), "export QUILL_BARE"); err != nil {
		t.Fatalf("Exec(export bare) error = %v", err)
	}

	if got := os.Getenv("QUILL_BARE"); got != "local" {
		t.Errorf("Getenv() = %q, want %q", got, "local")
	}
}

func TestShell_SourceBuiltin(t *testing.T) {
	t.Setenv("QUILL_SOURCED", "")

	script := filepath.Join(t.TempDir(), "rc.sh")
	body := "export QUILL_SOURCED=yes\necho ran $1\n"

	if err := os.WriteFile(script, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, out, _ := newTestShell(t, DefaultConfig())

	if err := s.Exec(context.Background(), "source "+script+" first"); err != nil {
		t.Fatalf("Exec(source) error = %v", err)
	}

	if got, want := out.String(), "ran first\n"; got != want {
		t.Errorf("source output = %q, want %q", got, want)
	}

	if got := os.Getenv("QUILL_SOURCED"); got != "yes" {
		t.Errorf("Getenv() = %q, want %q", got, "yes")
	}

	out.Reset()

	// The dot form is the same builtin.
	if err := s.Exec(context.Background(), ". "+script+" second"); err != nil {
		t.Fatalf("Exec(.) error = %v", err)
	}

	if got, want := out.String(), "ran second\n"; got != want {
		t.Errorf("dot output = %q, want %q", got, want)
	}
}

func TestShell_SourceMissingFile(t *testing.T) {
	s, _, errOut := newTestShell(t, DefaultConfig())

	if err := s.Exec(context.Background(), "source /definitely/not/here.sh"); err != nil {
		t.Fatalf("Exec(source missing) error = %v, want nil with status", err)
	}

	if !strings.Contains(errOut.String(), "source:") {
		t.Errorf("stderr = %q, want source diagnostic", errOut.String())
	}
}

func TestShell_ExitBuiltin(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{name: "plain", line: "exit", want: 0},
		{name: "with code", line: "exit 3", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestShell(t, DefaultConfig())

			err := s.Exec(context.Background(), tt.line)

			var req ExitRequest
			if !errors.As(err, &req) {
				t.Fatalf("Exec(%q) error = %v, want ExitRequest", tt.line, err)
			}

			if req.Code != tt.want {
				t.Errorf("ExitRequest.Code = %d, want %d", req.Code, tt.want)
			}
		})
	}
}
