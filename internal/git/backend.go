package git

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

type Ref struct {
	ID   CommitID
	Kind RefKind
	Name string // short name: main, origin/main, v1
	Full string // refs/heads/main
}

// Backend abstracts access to repository data.
//
// The default implementation reads the repository through go-git, but the
// interface lets the loader run against fakes without a repository on disk.
type Backend interface {
	// Branches lists branch references in reference-iteration order. Remote
	// tracking branches are included only when remotes is set.
	Branches(remotes bool) ([]Ref, error)
	// Tips returns the commits every reference (HEAD, branches, remote
	// branches, tags) points at, used as seeds for the history walk.
	Tips() ([]CommitID, error)
	Commit(id CommitID) (*Commit, error)
}
