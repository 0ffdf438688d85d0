// Package render turns repository snapshots into text for the terminal.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/thiagokokada/gitstruct/internal/git"
)

const (
	shortHashLen = 7
	summaryWidth = 72
	timeLayout   = "2006-01-02 15:04"
)

// Text writes the branch list followed by the commit list, each commit row
// prefixed with its graph column and decorated with the references pointing
// at it.
func Text(w io.Writer, snap *git.Snapshot) error {
	var b strings.Builder
	branches := snap.BranchInfos()
	fmt.Fprintf(&b, "Branches (%d)\n", len(branches))
	nameWidth := 0
	for _, br := range branches {
		nameWidth = max(nameWidth, utf8.RuneCountInString(br.Name))
	}
	for _, br := range branches {
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			padRight(br.Name, nameWidth), shortHash(br.TopCommit), truncate(firstLine(br.TopCommitMessage)))
	}
	commits := snap.CommitInfos()
	fmt.Fprintf(&b, "\nCommits (%d)\n", len(commits))
	graph := newGraphBuilder()
	lines := make([]string, len(commits))
	graphWidth := 0
	for i, c := range commits {
		lines[i] = graph.Line(c)
		graphWidth = max(graphWidth, len(lines[i]))
	}
	for i, c := range commits {
		summary := c.Summary()
		if labels := snap.Labels(c.ID); len(labels) > 0 {
			summary = "(" + strings.Join(labels, ", ") + ") " + summary
		}
		fmt.Fprintf(&b, "%-*s  %s  %s  %s  %s\n",
			graphWidth, lines[i],
			shortHash(c.ID),
			c.Time.Format(timeLayout),
			c.Author,
			truncate(summary),
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Diff returns a unified diff between the text renderings of two snapshots,
// or an empty string when they render the same.
func Diff(before, after *git.Snapshot) (string, error) {
	var a, b bytes.Buffer
	if err := Text(&a, before); err != nil {
		return "", err
	}
	if err := Text(&b, after); err != nil {
		return "", err
	}
	if a.String() == b.String() {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a.String()),
		B:        difflib.SplitLines(b.String()),
		FromFile: "before",
		ToFile:   "after",
		FromDate: before.LoadedAt().Format(timeLayout),
		ToDate:   after.LoadedAt().Format(timeLayout),
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

func shortHash(id git.CommitID) string {
	return id.String()[:shortHashLen]
}

func firstLine(message string) string {
	return strings.SplitN(strings.TrimSpace(message), "\n", 2)[0]
}

// truncate caps s at summaryWidth runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= summaryWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:summaryWidth-3]) + "..."
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
