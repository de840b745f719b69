package shell

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ardnew/quill/lang"
)

// GitArea counts pathnames on one side of a repository status, either
// the staging index or the working tree.
type GitArea struct {
	Added     int
	Modified  int
	Deleted   int
	Untracked int
	Unmerged  int
}

// Changed reports whether the area holds any pending paths.
func (a GitArea) Changed() bool {
	return a.Added+a.Modified+a.Deleted+a.Untracked+a.Unmerged > 0
}

// Display renders the area as a compact indicator such as "+1 ~2 -3".
// Untracked paths show as "?n", and zero counts are omitted entirely,
// so an unchanged area renders empty.
func (a GitArea) Display() string {
	parts := make([]string, 0, 4)

	mark := func(glyph string, count int) {
		if count > 0 {
			parts = append(parts, glyph+strconv.Itoa(count))
		}
	}

	mark("+", a.Added)
	mark("?", a.Untracked)
	mark("~", a.Modified)
	mark("-", a.Deleted)

	return strings.Join(parts, " ")
}

// GitSummary is a point-in-time snapshot of repository state for one
// directory. The zero value means the directory is not inside a work
// tree.
type GitSummary struct {
	InRepo  bool
	Branch  string
	Ahead   int
	Behind  int
	Stashed int
	Staging GitArea
	Working GitArea
}

// BranchStatus renders the upstream divergence as an arrow glyph:
// "↑n" ahead, "↓n" behind, "↕" when the branches have crossed, and
// empty when in sync.
func (g GitSummary) BranchStatus() string {
	switch {
	case g.Ahead > 0 && g.Behind > 0:
		return "↕"
	case g.Ahead > 0:
		return "↑" + strconv.Itoa(g.Ahead)
	case g.Behind > 0:
		return "↓" + strconv.Itoa(g.Behind)
	}

	return ""
}

// Status joins the staging and working indicators into one field,
// staged counts first. Either side renders nothing when clean.
func (g GitSummary) Status() string {
	staged := g.Staging.Display()
	working := g.Working.Display()

	switch {
	case staged == "":
		return working
	case working == "":
		return staged
	}

	return staged + " " + working
}

// Value converts the summary to the dictionary bound under "git" in
// every template render.
func (g GitSummary) Value() lang.Value {
	working := lang.NewDict().
		Set("changed", lang.NewBool(g.Working.Changed())).
		Set("added", lang.NewNumber(float64(g.Working.Added))).
		Set("modified", lang.NewNumber(float64(g.Working.Modified))).
		Set("deleted", lang.NewNumber(float64(g.Working.Deleted))).
		Set("untracked", lang.NewNumber(float64(g.Working.Untracked))).
		Set("unmerged", lang.NewNumber(float64(g.Working.Unmerged))).
		Set("display", lang.NewString(g.Working.Display()))

	staging := lang.NewDict().
		Set("changed", lang.NewBool(g.Staging.Changed())).
		Set("added", lang.NewNumber(float64(g.Staging.Added))).
		Set("modified", lang.NewNumber(float64(g.Staging.Modified))).
		Set("deleted", lang.NewNumber(float64(g.Staging.Deleted))).
		Set("display", lang.NewString(g.Staging.Display()))

	stash := lang.NewDict().
		Set("count", lang.NewNumber(float64(g.Stashed)))

	return lang.NewDict().
		Set("in-repo", lang.NewBool(g.InRepo)).
		Set("branch", lang.NewString(g.Branch)).
		Set("branch-status", lang.NewString(g.BranchStatus())).
		Set("status", lang.NewString(g.Status())).
		Set("ahead", lang.NewNumber(float64(g.Ahead))).
		Set("behind", lang.NewNumber(float64(g.Behind))).
		Set("stash", stash.Value()).
		Set("working", working.Value()).
		Set("staging", staging.Value()).
		Value()
}

// GitStatus queries repository state for dir by running git itself.
// Any failure, including dir lying outside a work tree, yields the
// zero summary rather than an error so prompt rendering never stalls
// on repository problems.
func GitStatus(ctx context.Context, dir string) GitSummary {
	out, err := gitOutput(ctx, dir, "status", "--porcelain=v2", "--branch")
	if err != nil {
		return GitSummary{}
	}

	sum := parseGitStatus(out)
	sum.InRepo = true

	if stash, err := gitOutput(ctx, dir, "stash", "list"); err == nil {
		sum.Stashed = countLines(stash)
	}

	return sum
}

// gitOutput runs one git subcommand rooted at dir and captures its
// standard output. Diagnostics on stderr are discarded.
func gitOutput(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// parseGitStatus reads porcelain v2 status output with branch
// headers. The first status character of an entry describes the
// staging index and the second describes the working tree.
func parseGitStatus(out []byte) GitSummary {
	var (
		sum      GitSummary
		oid      string
		detached bool
	)

	scan := bufio.NewScanner(bytes.NewReader(out))
	for scan.Scan() {
		line := scan.Text()

		switch {
		case strings.HasPrefix(line, "# branch.oid "):
			oid = strings.TrimPrefix(line, "# branch.oid ")

		case strings.HasPrefix(line, "# branch.head "):
			head := strings.TrimPrefix(line, "# branch.head ")
			if head == "(detached)" {
				detached = true
			} else {
				sum.Branch = head
			}

		case strings.HasPrefix(line, "# branch.ab "):
			sum.Ahead, sum.Behind = parseAheadBehind(line)

		case strings.HasPrefix(line, "1 "), strings.HasPrefix(line, "2 "):
			if fields := strings.Fields(line); len(fields) > 1 && len(fields[1]) == 2 {
				countStaging(&sum.Staging, fields[1][0])
				countWorking(&sum.Working, fields[1][1])
			}

		case strings.HasPrefix(line, "u "):
			sum.Working.Unmerged++

		case strings.HasPrefix(line, "? "):
			sum.Working.Untracked++
		}
	}

	if detached {
		sum.Branch = shortOID(oid)
	}

	if sum.Branch == "" {
		sum.Branch = "HEAD"
	}

	return sum
}

// parseAheadBehind reads the "# branch.ab +n -m" header.
func parseAheadBehind(line string) (ahead, behind int) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return 0, 0
	}

	ahead, _ = strconv.Atoi(strings.TrimPrefix(fields[2], "+"))
	behind, _ = strconv.Atoi(strings.TrimPrefix(fields[3], "-"))

	return ahead, behind
}

// countStaging tallies one index status character.
func countStaging(area *GitArea, status byte) {
	switch status {
	case 'A':
		area.Added++
	case 'D':
		area.Deleted++
	case 'M', 'R', 'C', 'T':
		area.Modified++
	}
}

// countWorking tallies one working tree status character.
func countWorking(area *GitArea, status byte) {
	switch status {
	case 'D':
		area.Deleted++
	case 'M', 'R', 'C', 'T':
		area.Modified++
	}
}

// shortOID renders a detached head as its abbreviated commit, in
// parentheses to distinguish it from a branch name.
func shortOID(oid string) string {
	if oid == "" || strings.HasPrefix(oid, "(") {
		return "HEAD"
	}

	if len(oid) > 7 {
		oid = oid[:7]
	}

	return "(" + oid + ")"
}

// countLines counts non-empty lines, one per recorded stash entry.
func countLines(out []byte) int {
	total := 0

	scan := bufio.NewScanner(bytes.NewReader(out))
	for scan.Scan() {
		if strings.TrimSpace(scan.Text()) != "" {
			total++
		}
	}

	return total
}
