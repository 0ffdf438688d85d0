package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitstruct/internal/config"
	"github.com/thiagokokada/gitstruct/internal/git"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "gitstruct",
		Short: "Show and watch the branch and commit structure of a Git repository",
		Long: `gitstruct loads the branches of a Git repository and a bounded,
newest-first walk of its history, and can keep watching the working
tree to print structural changes as they happen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./gitstruct.yaml)")
	// Read through config.Load, which binds it by name.
	root.PersistentFlags().Bool("verbose", false, "enable verbose logging")
	root.AddCommand(newShowCmd(opts), newWatchCmd(opts), newVersionCmd())
	return root
}

// addLoadFlags registers the flags controlling how much of the repository
// is loaded.
func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-commits", git.DefaultMaxCommits, "maximum number of commits to load")
	cmd.Flags().Bool("remotes", false, "include remote-tracking branches")
}

// loadConfig resolves the configuration for cmd. A positional argument names
// the repository and takes precedence over every other source.
func (o *rootOptions) loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, err := config.Load(o.configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if len(args) > 0 {
		cfg.RepositoryPath = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg.Verbose)
	return cfg, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
