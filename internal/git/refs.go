package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Labeler is implemented by backends that can name the references pointing
// at each commit. Snapshots of other backends carry no labels.
type Labeler interface {
	Labels() (map[CommitID][]string, error)
}

// Labels decorates commits with the references that point at them: branch
// names, remote branches, "tag: v1" for tags and "HEAD -> main" (or a bare
// "HEAD" when detached) first.
func (b *repoBackend) Labels() (map[CommitID][]string, error) {
	labels := map[CommitID][]string{}
	if b.repo == nil {
		return labels, nil
	}
	refs, err := b.repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || ref.Hash().IsZero() {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			labels[ref.Hash()] = append(labels[ref.Hash()], name.Short())
		case name.IsRemote():
			if strings.HasSuffix(name.Short(), "/HEAD") {
				return nil
			}
			labels[ref.Hash()] = append(labels[ref.Hash()], name.Short())
		case name.IsTag():
			if peeled, ok := b.peelTagCommitHash(ref.Hash()); ok {
				labels[peeled] = append(labels[peeled], fmt.Sprintf("tag: %s", name.Short()))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	head, err := b.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return labels, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	label := "HEAD"
	if head.Name().IsBranch() {
		label = fmt.Sprintf("HEAD -> %s", head.Name().Short())
	}
	labels[head.Hash()] = append([]string{label}, labels[head.Hash()]...)
	return labels, nil
}
