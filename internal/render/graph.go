package render

import (
	"slices"
	"strings"

	"github.com/thiagokokada/gitstruct/internal/git"
)

// graphBuilder produces one ASCII graph column per commit, in the order the
// commits are fed to Line.
type graphBuilder struct {
	columns []git.CommitID
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{}
}

func (g *graphBuilder) Line(c git.CommitInfo) string {
	idx := slices.Index(g.columns, c.ID)
	if idx == -1 {
		g.columns = append([]git.CommitID{c.ID}, g.columns...)
		idx = 0
	}
	var b strings.Builder
	for i := range g.columns {
		if i == idx {
			b.WriteString("*")
		} else {
			b.WriteString("|")
		}
		if i != len(g.columns)-1 {
			b.WriteString(" ")
		}
	}
	g.advance(idx, c.ID, c.Parents)
	return b.String()
}

func (g *graphBuilder) advance(idx int, id git.CommitID, parents []git.CommitID) {
	// Other lanes waiting for this commit end here.
	for j := len(g.columns) - 1; j > idx; j-- {
		if g.columns[j] == id {
			g.columns = slices.Delete(g.columns, j, j+1)
		}
	}
	if len(parents) == 0 {
		g.columns = slices.Delete(g.columns, idx, idx+1)
		return
	}
	if j := slices.Index(g.columns, parents[0]); j != -1 && j != idx {
		// The first parent already has a lane; join it.
		g.columns = slices.Delete(g.columns, idx, idx+1)
		idx = slices.Index(g.columns, parents[0])
	} else {
		g.columns[idx] = parents[0]
	}
	for i := 1; i < len(parents); i++ {
		parent := parents[i]
		if j := slices.Index(g.columns, parent); j != -1 {
			g.columns = slices.Delete(g.columns, j, j+1)
			if j < idx {
				idx--
			}
		}
		pos := min(idx+i, len(g.columns))
		g.columns = slices.Insert(g.columns, pos, parent)
	}
}
