package git

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// CommitID identifies a commit by its object hash.
type CommitID = plumbing.Hash

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	ID        CommitID
	Parents   []CommitID
	Author    Signature
	Committer Signature
	Message   string
}

// BranchInfo describes a branch reference as seen when the snapshot was taken.
type BranchInfo struct {
	Name             string // short name: main, origin/main
	Reference        string // full name: refs/heads/main
	Remote           bool
	TopCommit        CommitID
	TopCommitMessage string
}

type CommitInfo struct {
	ID      CommitID
	Parents []CommitID
	Author  string
	Email   string
	Time    time.Time
	Message string
}

// Summary returns the first line of the commit message.
func (c CommitInfo) Summary() string {
	return summaryLine(c.Message)
}

func newCommitInfo(c *Commit) CommitInfo {
	when := c.Committer.When
	if when.IsZero() {
		when = c.Author.When
	}
	return CommitInfo{
		ID:      c.ID,
		Parents: append([]CommitID(nil), c.Parents...),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		Time:    when,
		Message: c.Message,
	}
}

// commitTime is the timestamp used to order the history walk.
func (c *Commit) commitTime() time.Time {
	if c.Committer.When.IsZero() {
		return c.Author.When
	}
	return c.Committer.When
}
