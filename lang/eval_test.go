package lang

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// render parses and renders source with a fresh environment, failing
// the test on any error.
func render(t *testing.T, source string, opts ...Option) string {
	t.Helper()

	return renderWith(t, source, NewEnv(), opts...)
}

// renderWith parses and renders source against env.
func renderWith(t *testing.T, source string, env *Env, opts ...Option) string {
	t.Helper()

	tmpl, err := Parse(context.Background(), source, opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	out, err := tmpl.Render(context.Background(), env)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	return out
}

// renderErr parses source, which must succeed, and returns the render
// error, which must not be nil.
func renderErr(t *testing.T, source string, opts ...Option) error {
	t.Helper()

	tmpl, err := Parse(context.Background(), source, opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = tmpl.Render(context.Background(), NewEnv())
	if err == nil {
		t.Fatalf("render(%q): expected error, got nil", source)
	}

	return err
}

// mapEnviron is an Environ backed by a plain map.
type mapEnviron map[string]string

func (m mapEnviron) Get(name string) (string, bool) {
	v, ok := m[name]

	return v, ok
}

// mapFiles is a Files backed by a plain map of path to content.
type mapFiles map[string]string

func (m mapFiles) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}

	return []byte(s), nil
}

// fakeRunner is a Runner that replays canned output and records the
// command lines it receives.
type fakeRunner struct {
	out         map[string]string
	err         error
	calls       []string
	sawDeadline bool
}

func (r *fakeRunner) Run(ctx context.Context, line string) (string, error) {
	r.calls = append(r.calls, line)

	if _, ok := ctx.Deadline(); ok {
		r.sawDeadline = true
	}

	if r.err != nil {
		return "", r.err
	}

	return r.out[line], nil
}

func TestRender_Text(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain", "hello, world", "hello, world"},
		{"empty", "", ""},
		{"multiline", "a\nb", "a\nb"},
		{"close brace literal", "a}b", "a}b"},
		{"angle bracket literal", "1 < 2", "1 < 2"},
		{"escaped braces", "100% {'{'}done{'}'}", "100% {done}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_Variables(t *testing.T) {
	env := NewEnv()
	_ = env.Let("name", NewString("Ada"))
	_ = env.Let("n", NewNumber(42))

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"substitution", "{name}", "Ada"},
		{"interpolation", "Hi {name}!", "Hi Ada!"},
		{"number", "{n}", "42"},
		{"unresolved is empty", "{missing}", ""},
		{"unresolved inline", "{name} has {missing} item", "Ada has  item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderWith(t, tt.source, env); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_Fallback(t *testing.T) {
	env := NewEnv()
	_ = env.Let("name", NewString("Ada"))
	_ = env.Let("empty", NewString(""))
	_ = env.Let("zero", NewNumber(0))

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing uses fallback", "{missing : 'anon'}", "anon"},
		{"bound skips fallback", "{name : 'anon'}", "Ada"},
		{"chain tries each", "{a : b : 'last'}", "last"},
		{"empty string falls back", "{empty : 'fb'}", "fb"},
		{"zero falls back", "{zero : 'fb'}", "fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderWith(t, tt.source, env); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}

	// Only falsy values trigger the fallback. Errors pass through.
	err := renderErr(t, "{('a' greater 1) : 'fb'}")
	if !errors.Is(err, ErrType) {
		t.Errorf("expected ErrType through fallback, got %v", err)
	}
}

func TestRender_Conditionals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"true arm", "{if true {yes}}", "yes"},
		{"false without else", "{if false {yes}}", ""},
		{"else arm", "{if false {a} else {b}}", "b"},
		{"else if arm", "{if false {a} else if true {b} else {c}}", "b"},
		{"first true wins", "{if true {a} else if true {b}}", "a"},
		{"comparison condition", "{let n = 5}{if n greater 3 {big} else {small}}", "big"},
		{"null condition is false", "{if missing {a} else {b}}", "b"},
		{"body trimmed", "{if true {  padded  }}", "padded"},
		{"directive in body", "{if true {a{'-' 2}b}}", "a--b"},
		{"conditional as value", "{let w = if true {warm} else {cold}}[{w}]", "[warm]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_Scoping(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"body bindings vanish",
			"{let x = 1}{if true {{let x = 2}({x})}}({x})",
			"(2)(1)",
		},
		{
			"assignment writes through",
			"{let x = 1}{if true {{x = 9}}}{x}",
			"9",
		},
		{
			"loop variable scoped",
			"{for i in 1..3 {{i}}}{i}",
			"12",
		},
		{
			"child shadows const",
			"{const c = 1}{if true {{let c = 9}{c}}}{c}",
			"91",
		},
		{
			"let rebinds in same scope",
			"{let x = 1}{let x = 2}{x}",
			"2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_AssignErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{"assign to const", "{const c = 1}{c = 2}", ErrReassign},
		{"let over const", "{const c = 1}{let c = 2}", ErrReassign},
		{"const over const", "{const c = 1}{const c = 2}", ErrReassign},
		{"const over let", "{let v = 1}{const v = 2}", ErrReassign},
		{"assign undeclared", "{undeclared = 5}", ErrUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := renderErr(t, tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("render(%q): expected %v, got %v",
					tt.source, tt.wantErr, err)
			}
		})
	}
}

func TestRender_Loops(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"list", "{for x in ['a', 'b', 'c'] {{x}.}}", "a.b.c."},
		{"list with ordinal", "{for x, i in ['a', 'b'] {({i}:{x})}}", "(0:a)(1:b)"},
		{"range excludes end", "{for i in 1..5 {{i}}}", "1234"},
		{"empty range", "{for i in 2..2 {never}}", ""},
		{"descending range is empty", "{for i in 3..1 {never}}", ""},
		{"null iterable is empty", "{for x in missing {never}}", ""},
		{"range over variables", "{let lo = 2}{let hi = 4}{for i in lo..hi {{i}}}", "23"},
		{"nested", "{for a in [1, 2] {{for b in [3, 4] {{a}{b}}}}}", "13142324"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_LoopErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"string iterable", "{for x in 'abc' {y}}"},
		{"dict iterable", "{let d = ['k': 1]}{for x in d {y}}"},
		{"fractional range bound", "{for i in 1..2.5 {y}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := renderErr(t, tt.source)
			if !errors.Is(err, ErrType) {
				t.Errorf("render(%q): expected ErrType, got %v",
					tt.source, err)
			}
		})
	}
}

func TestRender_ContextCancel(t *testing.T) {
	tmpl, err := Parse(context.Background(), "{for i in 1..5 {x}}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tmpl.Render(ctx, NewEnv()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRender_Collections(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"list index", "{[1, 2, 3][1]}", "2"},
		{"negative index", "{['a', 'b'][-1]}", "b"},
		{"index past end", "{['a', 'b'][9]}", ""},
		{"index before start", "{['a', 'b'][-9]}", ""},
		{"index on null", "{missing[3]}", ""},
		{"list text", "{[1, 'a', true]}", "1, a, true"},
		{"dict text", "{let d = ['k': 'v']}{d}", "k: v"},
		{"empty dict text", "{let d = [:]}({d})", "()"},
		{"empty dict predicate", "{let d = [:]}{if d is_empty {empty}}", "empty"},
		{
			"field and key access",
			"{let d = ['name': 'Ada', 'born': 1815]}{d.name}, {d['born']}",
			"Ada, 1815",
		},
		{
			"missing members are empty",
			"{let d = ['a': 1]}[{d.b}][{d['b']}]",
			"[][]",
		},
		{"field on scalar is empty", "{let x = 5}[{x.field}]", "[]"},
		{"nested access", "{let xs = [['n': 1], ['n': 2]]}{xs[1].n}", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_IndexErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"text index", "{[1, 2]['x']}"},
		{"fractional index", "{[1, 2][1.5]}"},
		{"indexing a scalar", "{'s'[0]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := renderErr(t, tt.source)
			if !errors.Is(err, ErrType) {
				t.Errorf("render(%q): expected ErrType, got %v",
					tt.source, err)
			}
		})
	}
}

func TestRender_Repeat(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"dashes", "{'-' 3}", "---"},
		{"ruler", "{'=' 40}", strings.Repeat("=", 40)},
		{"multichar", "{'ab' 2}", "abab"},
		{"zero", "{'x' 0}", ""},
		{"negative is zero", "{'x' -2}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_Environ(t *testing.T) {
	environ := mapEnviron{"HOME": "/home/ada"}

	if got := render(t, "{$HOME}", WithEnviron(environ)); got != "/home/ada" {
		t.Errorf("expected /home/ada, got %q", got)
	}

	if got := render(t, "{$UNSET}", WithEnviron(environ)); got != "" {
		t.Errorf("unset variable: expected empty, got %q", got)
	}

	if got := render(t, "{$HOME}"); got != "" {
		t.Errorf("no environ: expected empty, got %q", got)
	}

	if got := render(t, "{$SHELL : '/bin/sh'}", WithEnviron(environ)); got != "/bin/sh" {
		t.Errorf("environ fallback: expected /bin/sh, got %q", got)
	}
}

func TestRender_Command(t *testing.T) {
	t.Run("output trimmed", func(t *testing.T) {
		runner := &fakeRunner{out: map[string]string{"git branch": "main\n"}}

		if got := render(t, "{cmd('git branch')}", WithRunner(runner)); got != "main" {
			t.Errorf("expected main, got %q", got)
		}

		if len(runner.calls) != 1 || runner.calls[0] != "git branch" {
			t.Errorf("expected one call to git branch, got %v", runner.calls)
		}
	})

	t.Run("crlf trimmed", func(t *testing.T) {
		runner := &fakeRunner{out: map[string]string{"ver": "10.0\r\n"}}

		if got := render(t, "{cmd('ver')}", WithRunner(runner)); got != "10.0" {
			t.Errorf("expected 10.0, got %q", got)
		}
	})

	t.Run("interior newlines kept", func(t *testing.T) {
		runner := &fakeRunner{out: map[string]string{"ls": "a\nb\n"}}

		if got := render(t, "{cmd('ls')}", WithRunner(runner)); got != "a\nb" {
			t.Errorf("expected a\\nb, got %q", got)
		}
	})

	t.Run("no runner yields empty", func(t *testing.T) {
		if got := render(t, "{cmd('anything')}"); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("failure degrades to empty", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 1")}

		if got := render(t, "{cmd('broken')}", WithRunner(runner)); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("deadline applied", func(t *testing.T) {
		runner := &fakeRunner{out: map[string]string{}}

		render(t, "{cmd('sleepy')}", WithRunner(runner), WithTimeout(50*time.Millisecond))

		if !runner.sawDeadline {
			t.Error("expected the command context to carry a deadline")
		}
	})

	t.Run("output in condition", func(t *testing.T) {
		runner := &fakeRunner{out: map[string]string{"test -d .git": "ok"}}

		got := render(t, "{if cmd('test -d .git') {repo}}", WithRunner(runner))
		if got != "repo" {
			t.Errorf("expected repo, got %q", got)
		}
	})
}

func TestRender_Include(t *testing.T) {
	t.Run("partial shares environment", func(t *testing.T) {
		files := mapFiles{"greet.tmpl": "Hello, {name}!"}

		env := NewEnv()
		_ = env.Let("name", NewString("Ada"))

		got := renderWith(t, "{>greet.tmpl}", env, WithFiles(files))
		if got != "Hello, Ada!" {
			t.Errorf("expected greeting, got %q", got)
		}
	})

	t.Run("partials nest", func(t *testing.T) {
		files := mapFiles{
			"outer.tmpl": "A{>inner.tmpl}C",
			"inner.tmpl": "B",
		}

		if got := render(t, "{>outer.tmpl}", WithFiles(files)); got != "ABC" {
			t.Errorf("expected ABC, got %q", got)
		}
	})

	t.Run("missing file yields empty", func(t *testing.T) {
		if got := render(t, "x{>nope.tmpl}y", WithFiles(mapFiles{})); got != "xy" {
			t.Errorf("expected xy, got %q", got)
		}
	})

	t.Run("no reader yields empty", func(t *testing.T) {
		if got := render(t, "x{>nope.tmpl}y"); got != "xy" {
			t.Errorf("expected xy, got %q", got)
		}
	})

	t.Run("depth limited", func(t *testing.T) {
		files := mapFiles{"self.tmpl": "{>self.tmpl}"}

		tmpl, err := Parse(context.Background(), "{>self.tmpl}",
			WithFiles(files), WithMaxDepth(3))
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		_, err = tmpl.Render(context.Background(), NewEnv())
		if !errors.Is(err, ErrIncludeDepth) {
			t.Errorf("expected ErrIncludeDepth, got %v", err)
		}
	})

	t.Run("unparsable partial aborts", func(t *testing.T) {
		files := mapFiles{"bad.tmpl": "{if}"}

		tmpl, err := Parse(context.Background(), "{>bad.tmpl}", WithFiles(files))
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}

		_, err = tmpl.Render(context.Background(), NewEnv())
		if !errors.Is(err, ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})

	t.Run("partial bindings persist", func(t *testing.T) {
		files := mapFiles{"set.tmpl": "{let from-partial = 'yes'}"}

		got := render(t, "{>set.tmpl}{from-partial}", WithFiles(files))
		if got != "yes" {
			t.Errorf("expected yes, got %q", got)
		}
	})

	t.Run("partial styles restore caller state", func(t *testing.T) {
		files := mapFiles{"accent.tmpl": "<s.bold>B</s>"}

		got := render(t, "<s.red>a{>accent.tmpl}c</s>", WithFiles(files))
		want := "\x1b[31ma\x1b[1mB\x1b[0m\x1b[31mc\x1b[0m"

		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestRender_Styles(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"named color",
			"<s.red>x</s>",
			"\x1b[31mx\x1b[0m",
		},
		{
			"nesting restores outer state",
			"<s.red>a<s.bold>b</s>c</s>",
			"\x1b[31ma\x1b[1mb\x1b[0m\x1b[31mc\x1b[0m",
		},
		{
			"unknown spec styles nothing",
			"<s.sparkle>x</s>",
			"x",
		},
		{
			"inert block leaves outer style alone",
			"<s.red>a<s.sparkle>b</s>c</s>",
			"\x1b[31mabc\x1b[0m",
		},
		{
			"spec from expression",
			"{let color = 'green'}<s.{color}>x</s>",
			"\x1b[32mx\x1b[0m",
		},
		{
			"directive in body",
			"{let n = 7}<s.bold>{n}</s>",
			"\x1b[1m7\x1b[0m",
		},
		{
			"body keeps whitespace",
			"<s.red> x </s>",
			"\x1b[31m x \x1b[0m",
		},
		{
			"reset block",
			"<s.red>a<s.reset>b</s>c</s>",
			"\x1b[31ma\x1b[0mb\x1b[0m\x1b[31mc\x1b[0m",
		},
		{
			"hex color",
			"<s.#f80>x</s>",
			"\x1b[38;2;255;136;0mx\x1b[0m",
		},
		{
			"rgb color",
			"<s.rgb(0, 128, 255)>x</s>",
			"\x1b[38;2;0;128;255mx\x1b[0m",
		},
		{
			"background and foreground",
			"<s.on_blue><s.white>w</s></s>",
			"\x1b[44m\x1b[37mw\x1b[0m\x1b[44m\x1b[0m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source); got != tt.want {
				t.Errorf("render(%q): expected %q, got %q",
					tt.source, tt.want, got)
			}
		})
	}
}

func TestRender_NormalizedSource(t *testing.T) {
	source := Normalize(`
		{let user = 'ada'}
		{if user {
			<s.cyan>{user}</s>
		}}
	`)

	want := "\x1b[36mada\x1b[0m"
	if got := render(t, source); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
