package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/gitstruct/internal/git"
)

type stubBackend struct {
	refs    []git.Ref
	tips    []git.CommitID
	commits map[git.CommitID]*git.Commit
	labels  map[git.CommitID][]string
}

func (s *stubBackend) Labels() (map[git.CommitID][]string, error) { return s.labels, nil }

func (s *stubBackend) Branches(bool) ([]git.Ref, error) { return s.refs, nil }
func (s *stubBackend) Tips() ([]git.CommitID, error)    { return s.tips, nil }

func (s *stubBackend) Commit(id git.CommitID) (*git.Commit, error) {
	if c, ok := s.commits[id]; ok {
		return c, nil
	}
	return nil, errors.New("missing")
}

var base = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func (s *stubBackend) add(name string, minutes int, parents ...git.CommitID) git.CommitID {
	if s.commits == nil {
		s.commits = map[git.CommitID]*git.Commit{}
	}
	id := plumbing.ComputeHash(plumbing.CommitObject, []byte(name))
	sig := git.Signature{Name: "Carol", Email: "carol@example.com", When: base.Add(time.Duration(minutes) * time.Minute)}
	s.commits[id] = &git.Commit{ID: id, Parents: parents, Author: sig, Committer: sig, Message: name + "\n\nbody\n"}
	return id
}

func (s *stubBackend) branch(name string, id git.CommitID) {
	s.refs = append(s.refs, git.Ref{ID: id, Kind: git.RefKindBranch, Name: name, Full: "refs/heads/" + name})
	s.tips = append(s.tips, id)
}

func sampleBackend() *stubBackend {
	s := &stubBackend{}
	root := s.add("root", 0)
	main := s.add("main work", 1, root)
	topic := s.add("topic work", 2, root)
	merge := s.add("merge topic", 3, main, topic)
	s.branch("main", merge)
	s.branch("topic", topic)
	return s
}

func TestText(t *testing.T) {
	snap := git.LoadBackend(sampleBackend(), git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, snap))
	out := buf.String()

	assert.Contains(t, out, "Branches (2)\n")
	assert.Contains(t, out, "  main   ")
	assert.Contains(t, out, "Commits (4)\n")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	assert.Contains(t, last, "root")
	assert.Contains(t, last, "Carol")
	assert.Contains(t, last, base.Format(timeLayout))
	assert.NotContains(t, out, "body")
}

func TestTextDecorations(t *testing.T) {
	s := sampleBackend()
	s.labels = map[git.CommitID][]string{s.tips[0]: {"HEAD -> main", "main", "tag: v1"}}
	snap := git.LoadBackend(s, git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, snap))
	assert.Contains(t, buf.String(), "(HEAD -> main, main, tag: v1) merge topic")

	buf.Reset()
	require.NoError(t, Export(&buf, snap, "json"))
	var got snapshotView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"HEAD -> main", "main", "tag: v1"}, got.Commits[0].Refs)
	assert.Empty(t, got.Commits[1].Refs)
}

func TestTextTruncatesMultibyte(t *testing.T) {
	s := &stubBackend{}
	accented := s.add(strings.Repeat("é", 50), 0)
	long := s.add(strings.Repeat("日", 100), 1, accented)
	s.branch("機能", long)
	s.branch("main", accented)
	snap := git.LoadBackend(s, git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, snap))
	out := buf.String()
	require.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("é", 50))
	assert.Contains(t, out, strings.Repeat("日", summaryWidth-3)+"...")
	assert.NotContains(t, out, strings.Repeat("日", summaryWidth-2))
	assert.Contains(t, out, "  機能    "+shortHash(long))
	assert.Contains(t, out, "  main  "+shortHash(accented))

	diff, err := Diff(git.LoadBackend(&stubBackend{}, git.Options{}), snap)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(diff))
}

func TestTextEmptySnapshot(t *testing.T) {
	snap := git.LoadBackend(&stubBackend{}, git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, snap))
	assert.Equal(t, "Branches (0)\n\nCommits (0)\n", buf.String())
}

func TestDiffUnchanged(t *testing.T) {
	a := git.LoadBackend(sampleBackend(), git.Options{})
	b := git.LoadBackend(sampleBackend(), git.Options{})

	diff, err := Diff(a, b)
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestDiffNewBranch(t *testing.T) {
	before := sampleBackend()
	after := sampleBackend()
	tip := after.add("hotfix", 10, after.tips[0])
	after.branch("hotfix", tip)

	diff, err := Diff(git.LoadBackend(before, git.Options{}), git.LoadBackend(after, git.Options{}))
	require.NoError(t, err)
	assert.Contains(t, diff, "--- before")
	assert.Contains(t, diff, "+++ after")
	assert.Contains(t, diff, "-Branches (2)")
	assert.Contains(t, diff, "+Branches (3)")
	assert.Contains(t, diff, "hotfix")
}

func TestHighlightNoneIsPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, "+added\n-removed\n", ThemeNone))
	assert.Equal(t, "+added\n-removed\n", buf.String())
}

func TestHighlightAddsEscapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, "--- before\n+++ after\n+added\n-removed\n", ThemeDark))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "added")
}

func TestThemeFromString(t *testing.T) {
	for _, th := range []Theme{ThemeAuto, ThemeLight, ThemeDark, ThemeNone} {
		assert.Equal(t, th, ThemeFromString(" "+strings.ToUpper(th.String())+" "))
	}
	assert.Equal(t, ThemeAuto, ThemeFromString("bogus"))
}

func TestThemeResolve(t *testing.T) {
	orig := detectDarkMode
	t.Cleanup(func() { detectDarkMode = orig })

	detectDarkMode = func() (bool, error) { return true, nil }
	assert.Equal(t, ThemeDark, ThemeAuto.resolve())
	detectDarkMode = func() (bool, error) { return false, nil }
	assert.Equal(t, ThemeLight, ThemeAuto.resolve())
	detectDarkMode = func() (bool, error) { return false, fmt.Errorf("no desktop") }
	assert.Equal(t, ThemeLight, ThemeAuto.resolve())
	assert.Equal(t, ThemeDark, ThemeDark.resolve())
}

func TestExportJSON(t *testing.T) {
	snap := git.LoadBackend(sampleBackend(), git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, snap, "json"))

	var got snapshotView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Branches, 2)
	assert.Equal(t, "main", got.Branches[0].Name)
	assert.Equal(t, "merge topic", got.Branches[0].Message)
	require.Len(t, got.Commits, 4)
	assert.Len(t, got.Commits[0].Parents, 2)
	// topic is already a parent of the merge, so only main is explored.
	assert.Len(t, got.Ancestry, 1)
}

func TestExportYAML(t *testing.T) {
	snap := git.LoadBackend(sampleBackend(), git.Options{})

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, snap, "yaml"))

	var got snapshotView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Commits, 4)
	assert.Equal(t, "topic", got.Branches[1].Name)
}

func TestExportUnknownFormat(t *testing.T) {
	snap := git.LoadBackend(&stubBackend{}, git.Options{})
	assert.Error(t, Export(&bytes.Buffer{}, snap, "xml"))
}
