package git

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

type fakeBackend struct {
	branchesFunc func(remotes bool) ([]Ref, error)
	tipsFunc     func() ([]CommitID, error)

	commits map[CommitID]*Commit

	lastRemotes *bool
}

func (f *fakeBackend) Branches(remotes bool) ([]Ref, error) {
	f.lastRemotes = &remotes
	if f.branchesFunc != nil {
		return f.branchesFunc(remotes)
	}
	return nil, errors.New("unexpected Branches call")
}

func (f *fakeBackend) Tips() ([]CommitID, error) {
	if f.tipsFunc != nil {
		return f.tipsFunc()
	}
	return nil, errors.New("unexpected Tips call")
}

func (f *fakeBackend) Commit(id CommitID) (*Commit, error) {
	c, ok := f.commits[id]
	if !ok {
		return nil, fmt.Errorf("commit %s: %w", id, plumbing.ErrObjectNotFound)
	}
	return c, nil
}

// fakeHistory builds commits with ids derived from their names.
type fakeHistory struct {
	base    time.Time
	commits map[CommitID]*Commit
	ids     map[string]CommitID
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		base:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		commits: map[CommitID]*Commit{},
		ids:     map[string]CommitID{},
	}
}

// add records a commit named name, committed minutes after the base time.
func (h *fakeHistory) add(name string, minutes int, parents ...string) CommitID {
	id := plumbing.ComputeHash(plumbing.CommitObject, []byte(name))
	ps := make([]CommitID, 0, len(parents))
	for _, p := range parents {
		ps = append(ps, h.ids[p])
	}
	when := h.base.Add(time.Duration(minutes) * time.Minute)
	h.commits[id] = &Commit{
		ID:        id,
		Parents:   ps,
		Author:    Signature{Name: "Alice", Email: "alice@example.com", When: when},
		Committer: Signature{Name: "Alice", Email: "alice@example.com", When: when},
		Message:   name + "\n",
	}
	h.ids[name] = id
	return id
}

func (h *fakeHistory) backend(refs []Ref, tips ...CommitID) *fakeBackend {
	return &fakeBackend{
		commits: h.commits,
		branchesFunc: func(bool) ([]Ref, error) {
			return refs, nil
		},
		tipsFunc: func() ([]CommitID, error) {
			return tips, nil
		},
	}
}

func branchRef(name string, id CommitID) Ref {
	return Ref{ID: id, Kind: RefKindBranch, Name: name, Full: "refs/heads/" + name}
}
