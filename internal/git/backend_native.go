package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type repoBackend struct {
	repo *gogit.Repository
}

// NewBackend returns a Backend reading from an open go-git repository.
func NewBackend(repo *gogit.Repository) Backend {
	return &repoBackend{repo: repo}
}

func (b *repoBackend) Branches(remotes bool) ([]Ref, error) {
	if b.repo == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	refs, err := b.repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	var out []Ref
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		kind := RefKindBranch
		switch {
		case name.IsBranch():
		case remotes && name.IsRemote():
			kind = RefKindRemoteBranch
		default:
			return nil
		}
		short := name.Short()
		if kind == RefKindRemoteBranch && strings.HasSuffix(short, "/HEAD") {
			return nil
		}
		out = append(out, Ref{ID: ref.Hash(), Kind: kind, Name: short, Full: name.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *repoBackend) Tips() ([]CommitID, error) {
	if b.repo == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var tips []CommitID
	head, err := b.repo.Head()
	switch {
	case err == nil:
		tips = append(tips, head.Hash())
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn HEAD
	default:
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	refs, err := b.repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch(), name.IsRemote():
			tips = append(tips, ref.Hash())
		case name.IsTag():
			if peeled, ok := b.peelTagCommitHash(ref.Hash()); ok {
				tips = append(tips, peeled)
			} else {
				slog.Debug("skipping tag without commit target", slog.String("tag", name.Short()))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tips, nil
}

func (b *repoBackend) Commit(id CommitID) (*Commit, error) {
	if b.repo == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	c, err := b.repo.CommitObject(id)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	return commitFromObject(c), nil
}

func (b *repoBackend) peelTagCommitHash(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := b.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := b.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func commitFromObject(c *object.Commit) *Commit {
	return &Commit{
		ID:        c.Hash,
		Parents:   append([]CommitID(nil), c.ParentHashes...),
		Author:    Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:   c.Message,
	}
}
