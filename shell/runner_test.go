package shell

import (
	"context"
	"testing"

	"mvdan.cc/sh/v3/interp"
)

func TestRunner_Run(t *testing.T) {
	t.Setenv("QUILL_TEST_VAR", "volume")

	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "echo", line: "echo knobs", want: "knobs\n"},
		{name: "pipeline", line: "echo knobs | while read w; do echo \"<$w>\"; done", want: "<knobs>\n"},
		{name: "expansion", line: "echo $QUILL_TEST_VAR", want: "volume\n"},
		{name: "quiet", line: "true", want: ""},
	}

	run := NewRunner()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run.Run(context.Background(), tt.line)
			if err != nil {
				t.Fatalf("Run(%q) error = %v", tt.line, err)
			}

			if got != tt.want {
				t.Errorf("Run(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestRunner_RunNonzeroExit(t *testing.T) {
	got, err := NewRunner().Run(context.Background(), "echo partial; exit 3")
	if err == nil {
		t.Fatalf("Run() error = nil, want exit status")
	}

	if status, ok := interp.IsExitStatus(err); !ok || status != 3 {
		t.Errorf("Run() error = %v, want exit status 3", err)
	}

	if got != "partial\n" {
		t.Errorf("Run() output = %q, want partial output retained", got)
	}
}

func TestRunner_RunParseError(t *testing.T) {
	if _, err := NewRunner().Run(context.Background(), "for (("); err == nil {
		t.Fatalf("Run() error = nil, want parse failure")
	}
}

func TestRunner_RunIsolated(t *testing.T) {
	run := NewRunner()

	if _, err := run.Run(context.Background(), "QUILL_LOCAL=leaky"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := run.Run(context.Background(), "echo \"${QUILL_LOCAL:-clean}\"")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got != "clean\n" {
		t.Errorf("Run() = %q, want variable isolation between calls", got)
	}
}
