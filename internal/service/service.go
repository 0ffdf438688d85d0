// Package service keeps a repository snapshot together with the watch tasks
// observing that repository.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/gitstruct/internal/config"
	"github.com/thiagokokada/gitstruct/internal/git"
	"github.com/thiagokokada/gitstruct/internal/watch"
)

var ErrUnknownTask = errors.New("unknown watch task")

type Service struct {
	cfg      config.Config
	notifier Notifier

	// mu guards snap. Snapshots are replaced, never modified.
	mu   sync.RWMutex
	snap *git.Snapshot

	tasksMu sync.Mutex
	tasks   []*watch.Task
}

// New validates cfg and loads the repository snapshot. A nil notifier runs
// the service headless.
func New(cfg config.Config, n Notifier) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	snap, err := git.Load(cfg.RepositoryPath, cfg.LoadOptions())
	if err != nil {
		return nil, err
	}
	return newWithSnapshot(cfg, n, snap), nil
}

// Default is a headless service over the repository in the working directory.
func Default() (*Service, error) {
	return New(config.Default(), nil)
}

func newWithSnapshot(cfg config.Config, n Notifier, snap *git.Snapshot) *Service {
	if n == nil {
		n = Nop{}
	}
	return &Service{cfg: cfg, notifier: n, snap: snap}
}

func (s *Service) Config() config.Config { return s.cfg }

func (s *Service) Snapshot() *git.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) BranchInfos() []git.BranchInfo {
	return s.Snapshot().BranchInfos()
}

func (s *Service) CommitInfos() []git.CommitInfo {
	return s.Snapshot().CommitInfos()
}

func (s *Service) Parents(id git.CommitID) ([]git.CommitID, bool) {
	return s.Snapshot().Parents(id)
}

func (s *Service) Seen(id git.CommitID) bool {
	return s.Snapshot().Seen(id)
}

// Reload takes a fresh snapshot and makes it current. Snapshots handed out
// earlier stay as they were.
func (s *Service) Reload() (*git.Snapshot, error) {
	path := s.Snapshot().Path()
	if path == "" {
		path = s.cfg.RepositoryPath
	}
	snap, err := git.Load(path, s.cfg.LoadOptions())
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return snap, nil
}

// Watch starts a watch task on path, or on the configured watch path when
// path is empty, that reports to the service's notifier. The task stays
// registered until Unwatch or UnwatchAll; the caller may also kill it directly.
func (s *Service) Watch(path string, opts ...watch.Option) (*watch.Task, error) {
	if path == "" {
		path = s.cfg.WatchPath
	}
	task, err := watch.Start(path, watch.HandlerFunc(s.notifier.OnChanged), opts...)
	if err != nil {
		return nil, err
	}
	s.register(task)
	return task, nil
}

func (s *Service) register(task *watch.Task) {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	s.tasks = append(s.tasks, task)
}

// Tasks returns the ids of registered tasks in registration order.
func (s *Service) Tasks() []watch.TaskID {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	ids := make([]watch.TaskID, 0, len(s.tasks))
	for _, t := range s.tasks {
		ids = append(ids, t.ID())
	}
	return ids
}

// Unwatch kills one registered task and waits for it to exit.
func (s *Service) Unwatch(id watch.TaskID) error {
	s.tasksMu.Lock()
	idx := slices.IndexFunc(s.tasks, func(t *watch.Task) bool { return t.ID() == id })
	if idx == -1 {
		s.tasksMu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	task := s.tasks[idx]
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.tasksMu.Unlock()
	return killTask(task)
}

// UnwatchAll kills every registered task and returns once all of them have
// exited. With no tasks registered it does nothing.
func (s *Service) UnwatchAll() error {
	s.tasksMu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.tasksMu.Unlock()
	if len(tasks) == 0 {
		return nil
	}
	slog.Debug("stopping watch tasks", slog.Int("count", len(tasks)))
	var g errgroup.Group
	for _, task := range tasks {
		g.Go(func() error { return killTask(task) })
	}
	return g.Wait()
}

// killTask tolerates tasks their holder already killed.
func killTask(task *watch.Task) error {
	if err := task.Kill(); err != nil && !errors.Is(err, watch.ErrKilled) {
		return fmt.Errorf("kill watch %s: %w", task.ID(), err)
	}
	return nil
}
