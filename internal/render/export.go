package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/gitstruct/internal/git"
)

type snapshotView struct {
	Path     string              `yaml:"path,omitempty" json:"path,omitempty"`
	LoadedAt time.Time           `yaml:"loaded_at" json:"loaded_at"`
	Branches []branchView        `yaml:"branches" json:"branches"`
	Commits  []commitView        `yaml:"commits" json:"commits"`
	Ancestry map[string][]string `yaml:"ancestry" json:"ancestry"`
}

type branchView struct {
	Name      string `yaml:"name" json:"name"`
	Reference string `yaml:"reference" json:"reference"`
	Remote    bool   `yaml:"remote,omitempty" json:"remote,omitempty"`
	TopCommit string `yaml:"top_commit" json:"top_commit"`
	Message   string `yaml:"message" json:"message"`
}

type commitView struct {
	ID      string    `yaml:"id" json:"id"`
	Parents []string  `yaml:"parents,omitempty" json:"parents,omitempty"`
	Author  string    `yaml:"author" json:"author"`
	Email   string    `yaml:"email,omitempty" json:"email,omitempty"`
	Time    time.Time `yaml:"time" json:"time"`
	Refs    []string  `yaml:"refs,omitempty" json:"refs,omitempty"`
	Message string    `yaml:"message" json:"message"`
}

// Export writes the snapshot as "yaml" or "json".
func Export(w io.Writer, snap *git.Snapshot, format string) error {
	view := newSnapshotView(snap)
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func newSnapshotView(snap *git.Snapshot) snapshotView {
	view := snapshotView{
		Path:     snap.Path(),
		LoadedAt: snap.LoadedAt(),
		Branches: []branchView{},
		Commits:  []commitView{},
		Ancestry: map[string][]string{},
	}
	for _, b := range snap.BranchInfos() {
		view.Branches = append(view.Branches, branchView{
			Name:      b.Name,
			Reference: b.Reference,
			Remote:    b.Remote,
			TopCommit: b.TopCommit.String(),
			Message:   firstLine(b.TopCommitMessage),
		})
	}
	for _, c := range snap.CommitInfos() {
		view.Commits = append(view.Commits, commitView{
			ID:      c.ID.String(),
			Parents: hashStrings(c.Parents),
			Author:  c.Author,
			Email:   c.Email,
			Time:    c.Time,
			Refs:    snap.Labels(c.ID),
			Message: c.Message,
		})
	}
	for tip, parents := range snap.Ancestry() {
		view.Ancestry[tip.String()] = hashStrings(parents)
	}
	return view
}

func hashStrings(ids []git.CommitID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
