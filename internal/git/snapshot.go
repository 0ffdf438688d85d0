package git

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

const DefaultMaxCommits = 100

type Options struct {
	// MaxCommits caps the history walk. Zero or negative means DefaultMaxCommits.
	MaxCommits int
	// RemoteBranches adds remote tracking branches to the branch list.
	RemoteBranches bool
}

func (o Options) maxCommits() int {
	if o.MaxCommits <= 0 {
		return DefaultMaxCommits
	}
	return o.MaxCommits
}

// Snapshot is the in-memory branch and commit structure of a repository at
// load time. It is never modified after loading; accessors return copies.
type Snapshot struct {
	path     string
	loadedAt time.Time

	branches []BranchInfo
	commits  []CommitInfo

	// ids holds every branch tip visited and its direct parents.
	ids map[CommitID]struct{}
	// ancestry maps a branch tip to its direct parents. Commits missing
	// from the table have unexplored parents, not zero parents.
	ancestry map[CommitID][]CommitID
	// labels holds reference decorations when the backend provides them.
	labels map[CommitID][]string
}

// Load opens the repository at path and snapshots it. Failing to open the
// repository is the only error; everything past that degrades to partial data.
func Load(path string, opts Options) (*Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	snap := LoadRepository(repo, opts)
	snap.path = abs
	return snap, nil
}

func LoadRepository(repo *gogit.Repository, opts Options) *Snapshot {
	return LoadBackend(NewBackend(repo), opts)
}

func LoadBackend(b Backend, opts Options) *Snapshot {
	start := time.Now()
	snap := &Snapshot{
		loadedAt: start,
		ids:      make(map[CommitID]struct{}),
		ancestry: make(map[CommitID][]CommitID),
	}
	refs, err := b.Branches(opts.RemoteBranches)
	if err != nil {
		slog.Warn("list branches", slog.Any("error", err))
		refs = nil
	}
	snap.branches = make([]BranchInfo, 0, len(refs))
	for _, ref := range refs {
		tip, err := b.Commit(ref.ID)
		if err != nil {
			slog.Warn("resolve branch tip",
				slog.String("branch", ref.Name),
				slog.Any("error", err),
			)
			continue
		}
		snap.branches = append(snap.branches, BranchInfo{
			Name:             ref.Name,
			Reference:        ref.Full,
			Remote:           ref.Kind == RefKindRemoteBranch,
			TopCommit:        tip.ID,
			TopCommitMessage: tip.Message,
		})
		snap.recordTip(tip)
	}

	tips, err := b.Tips()
	if err != nil {
		slog.Warn("collect walk seeds", slog.Any("error", err))
		tips = nil
	}
	if l, ok := b.(Labeler); ok {
		labels, err := l.Labels()
		if err != nil {
			slog.Warn("label commits", slog.Any("error", err))
		} else {
			snap.labels = labels
		}
	}

	walked := walkNewestFirst(b, tips, opts.maxCommits())
	snap.commits = make([]CommitInfo, 0, len(walked))
	for _, c := range walked {
		snap.commits = append(snap.commits, newCommitInfo(c))
	}
	slog.Debug("snapshot loaded",
		slog.Int("branches", len(snap.branches)),
		slog.Int("commits", len(snap.commits)),
		slog.Int("ancestry", len(snap.ancestry)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return snap
}

// recordTip adds the tip and its direct parents to the ancestry table unless
// the tip was already seen through another branch.
func (s *Snapshot) recordTip(tip *Commit) {
	if _, ok := s.ids[tip.ID]; ok {
		return
	}
	s.ids[tip.ID] = struct{}{}
	parents := make([]CommitID, 0, len(tip.Parents))
	for _, p := range tip.Parents {
		parents = append(parents, p)
		s.ids[p] = struct{}{}
	}
	s.ancestry[tip.ID] = parents
}

// Path is the absolute repository path, empty for snapshots not loaded from disk.
func (s *Snapshot) Path() string { return s.path }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

func (s *Snapshot) BranchInfos() []BranchInfo {
	return slices.Clone(s.branches)
}

func (s *Snapshot) CommitInfos() []CommitInfo {
	out := make([]CommitInfo, len(s.commits))
	for i, c := range s.commits {
		c.Parents = slices.Clone(c.Parents)
		out[i] = c
	}
	return out
}

// Parents returns the recorded parents of id and whether id was explored.
func (s *Snapshot) Parents(id CommitID) ([]CommitID, bool) {
	parents, ok := s.ancestry[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(parents), true
}

func (s *Snapshot) Seen(id CommitID) bool {
	_, ok := s.ids[id]
	return ok
}

// Labels returns the reference decorations of id, HEAD first.
func (s *Snapshot) Labels(id CommitID) []string {
	return slices.Clone(s.labels[id])
}

func (s *Snapshot) IDs() []CommitID {
	ids := slices.Collect(maps.Keys(s.ids))
	slices.SortFunc(ids, func(a, b CommitID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

func (s *Snapshot) Ancestry() map[CommitID][]CommitID {
	out := make(map[CommitID][]CommitID, len(s.ancestry))
	for k, v := range s.ancestry {
		out[k] = slices.Clone(v)
	}
	return out
}

func summaryLine(message string) string {
	return strings.SplitN(strings.TrimSpace(message), "\n", 2)[0]
}
