package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitstruct/internal/config"
	"github.com/thiagokokada/gitstruct/internal/debounce"
	"github.com/thiagokokada/gitstruct/internal/render"
	"github.com/thiagokokada/gitstruct/internal/service"
	"github.com/thiagokokada/gitstruct/internal/watch"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [repo]",
		Short: "Print the repository structure and every change to it",
		Long: `Print the repository structure, then watch the working tree and print
a diff of the structure whenever it changes. Stops on interrupt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg)
		},
	}
	cmd.Flags().String("watch-path", "", "directory to watch (default: the repository)")
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "quiet period before reloading after a change")
	cmd.Flags().String("theme", config.DefaultTheme, "diff colors: auto, light, dark, or none")
	addLoadFlags(cmd)
	return cmd
}

// reporter reloads the service after changes settle and prints what moved.
type reporter struct {
	out   io.Writer
	theme render.Theme
	svc   *service.Service

	reloader *debounce.Debouncer

	// mu serializes reloads with each other and with shutdown.
	mu      sync.Mutex
	stopped bool
}

func (r *reporter) OnChanged(ev watch.Event) {
	if ev.Kind == watch.KindError {
		slog.Warn("watch error", slog.String("task", ev.Task.String()), slog.Any("error", ev.Err))
		return
	}
	slog.Debug("repository changed", slog.String("path", ev.Path), slog.String("op", ev.Op.String()))
	r.reloader.Trigger()
}

func (r *reporter) reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	before := r.svc.Snapshot()
	after, err := r.svc.Reload()
	if err != nil {
		slog.Error("reload repository", slog.Any("error", err))
		return
	}
	diff, err := render.Diff(before, after)
	if err != nil {
		slog.Error("diff structure", slog.Any("error", err))
		return
	}
	if diff == "" {
		slog.Debug("structure unchanged")
		return
	}
	fmt.Fprintf(r.out, "\n[%s]\n", after.LoadedAt().Format(time.TimeOnly))
	if err := render.Highlight(r.out, diff, r.theme); err != nil {
		slog.Error("print diff", slog.Any("error", err))
	}
}

func (r *reporter) stop() {
	r.reloader.Stop()
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

func runWatch(cmd *cobra.Command, cfg config.Config) error {
	r := &reporter{out: cmd.OutOrStdout(), theme: render.ThemeFromString(cfg.Theme)}
	r.reloader = debounce.New(cfg.Debounce, r.reload)
	svc, err := service.New(cfg, service.NewShared(r))
	if err != nil {
		return err
	}
	r.svc = svc

	if err := render.Text(r.out, svc.Snapshot()); err != nil {
		return err
	}
	task, err := svc.Watch("")
	if err != nil {
		return err
	}
	slog.Info("watching repository", slog.String("path", task.Path()), slog.String("task", task.ID().String()))

	<-cmd.Context().Done()
	slog.Debug("shutting down")
	err = svc.UnwatchAll()
	r.stop()
	return err
}
