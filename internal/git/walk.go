package git

import (
	"log/slog"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// walkNewestFirst visits the commits reachable from tips in committer-time
// order, newest first, and stops after limit commits. Commits that cannot be
// resolved end their lineage instead of failing the walk.
func walkNewestFirst(b Backend, tips []CommitID, limit int) []*Commit {
	if limit <= 0 {
		return nil
	}
	seen := make(map[CommitID]struct{}, limit)
	queue := binaryheap.NewWith(newestFirst)
	push := func(id CommitID) {
		if id.IsZero() {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		c, err := b.Commit(id)
		if err != nil {
			slog.Debug("walk: skip commit", slog.String("id", id.String()), slog.Any("error", err))
			return
		}
		queue.Push(c)
	}
	for _, tip := range tips {
		push(tip)
	}
	out := make([]*Commit, 0, min(limit, queue.Size()))
	for len(out) < limit {
		v, ok := queue.Pop()
		if !ok {
			break
		}
		c := v.(*Commit)
		out = append(out, c)
		for _, p := range c.Parents {
			push(p)
		}
	}
	return out
}

func newestFirst(a, b any) int {
	ca, cb := a.(*Commit), b.(*Commit)
	ta, tb := ca.commitTime(), cb.commitTime()
	switch {
	case ta.After(tb):
		return -1
	case ta.Before(tb):
		return 1
	}
	// Equal timestamps fall back to the hash so the order is stable.
	return strings.Compare(ca.ID.String(), cb.ID.String())
}
