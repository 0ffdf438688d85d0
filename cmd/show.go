package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitstruct/internal/render"
	"github.com/thiagokokada/gitstruct/internal/service"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show [repo]",
		Short: "Print branches and recent commits",
		Long: `Print the branches of a repository and the newest commits reachable
from any of its references.

Examples:
  gitstruct show
  gitstruct show ~/src/project --remotes
  gitstruct show --format json --max-commits 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			svc, err := service.New(cfg, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "" || format == "text" {
				return render.Text(out, svc.Snapshot())
			}
			return render.Export(out, svc.Snapshot(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, yaml, or json")
	addLoadFlags(cmd)
	return cmd
}
