// Package watch runs recursive filesystem watches in background goroutines.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const defaultBufferSize = 64

// ErrKilled is returned by Kill on a task that was already killed.
var ErrKilled = errors.New("watch task already killed")

type TaskID uuid.UUID

func (id TaskID) String() string { return uuid.UUID(id).String() }

type Kind uint8

const (
	KindChange Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "change"
}

type Event struct {
	Task TaskID
	Kind Kind
	Path string
	Op   fsnotify.Op
	Err  error // set for KindError
}

type Handler interface {
	HandleEvent(Event)
}

type HandlerFunc func(Event)

func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

type options struct {
	bufferSize uint
	ignore     func(path string) bool
}

type Option func(*options)

// WithBufferSize sets how many filesystem events may queue up before the
// watcher backend blocks.
func WithBufferSize(n uint) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithIgnore replaces the default filter for paths whose events are dropped.
func WithIgnore(fn func(path string) bool) Option {
	return func(o *options) { o.ignore = fn }
}

// fsWatcher is the part of *fsnotify.Watcher a task drives.
type fsWatcher interface {
	Add(name string) error
	Close() error
}

// Task is one background watch over a directory tree.
type Task struct {
	id      TaskID
	root    string
	handler Handler
	ignore  func(path string) bool

	watcher fsWatcher
	events  <-chan fsnotify.Event
	errors  <-chan error

	mu      sync.Mutex
	running bool
	killed  bool

	stop      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Start watches root and every directory below it, delivering events to h
// from a new goroutine. Failing to create the watcher or register root aborts
// the start.
func Start(root string, h Handler, opts ...Option) (*Task, error) {
	o := options{bufferSize: defaultBufferSize, ignore: shouldIgnoreWatchPath}
	for _, opt := range opts {
		opt(&o)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewBufferedWatcher(o.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addRecursive(w, abs); err != nil {
		err := errors.Join(err, w.Close())
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	t := newTask(abs, h, w, w.Events, w.Errors)
	t.ignore = o.ignore
	go t.loop()
	slog.Debug("watch started", slog.String("task", t.id.String()), slog.String("path", abs))
	return t, nil
}

func newTask(root string, h Handler, w fsWatcher, events <-chan fsnotify.Event, errs <-chan error) *Task {
	if h == nil {
		h = HandlerFunc(func(Event) {})
	}
	return &Task{
		id:      TaskID(uuid.New()),
		root:    root,
		handler: h,
		ignore:  shouldIgnoreWatchPath,
		watcher: w,
		events:  events,
		errors:  errs,
		running: true,
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

func (t *Task) ID() TaskID { return t.id }

func (t *Task) Path() string { return t.root }

// Running reports whether the task loop is still accepting events.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Done is closed once the task loop has exited.
func (t *Task) Done() <-chan struct{} { return t.exited }

// Kill stops the task and blocks until its loop has exited. Events already
// queued when Kill is called are still delivered. A task can be killed once;
// later calls return ErrKilled.
func (t *Task) Kill() error {
	return t.KillContext(context.Background())
}

// KillContext is Kill with a bound on the wait for the loop to exit. When ctx
// ends first the task still stops in the background.
func (t *Task) KillContext(ctx context.Context) error {
	t.mu.Lock()
	if t.killed {
		t.mu.Unlock()
		return ErrKilled
	}
	t.killed = true
	t.running = false
	close(t.stop)
	t.mu.Unlock()

	// A loop that already exited wins over an expired ctx.
	select {
	case <-t.exited:
		slog.Debug("watch stopped", slog.String("task", t.id.String()))
		return t.closeWatcher()
	default:
	}
	select {
	case <-t.exited:
	case <-ctx.Done():
		go func() {
			<-t.exited
			_ = t.closeWatcher()
		}()
		return fmt.Errorf("kill watch %s: %w", t.id, ctx.Err())
	}
	slog.Debug("watch stopped", slog.String("task", t.id.String()))
	return t.closeWatcher()
}

func (t *Task) closeWatcher() error {
	t.closeOnce.Do(func() {
		if t.watcher != nil {
			t.closeErr = t.watcher.Close()
		}
	})
	return t.closeErr
}

func (t *Task) loop() {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(t.exited)
	}()
	for {
		select {
		case <-t.stop:
			t.drain()
			return
		case ev, ok := <-t.events:
			if !ok {
				return
			}
			t.handleFSEvent(ev)
		case err, ok := <-t.errors:
			if !ok {
				return
			}
			t.handleError(err)
		}
	}
}

// drain delivers whatever is already queued and returns once both channels
// are empty.
func (t *Task) drain() {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return
			}
			t.handleFSEvent(ev)
		case err, ok := <-t.errors:
			if !ok {
				return
			}
			t.handleError(err)
		default:
			return
		}
	}
}

func (t *Task) handleFSEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if t.ignore != nil && t.ignore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create != 0 {
		t.watchNewDir(ev.Name)
	}
	slog.Debug("fsnotify event",
		slog.String("task", t.id.String()),
		slog.String("op", ev.Op.String()),
		slog.String("path", ev.Name),
	)
	t.handler.HandleEvent(Event{Task: t.id, Kind: KindChange, Path: ev.Name, Op: ev.Op})
}

func (t *Task) handleError(err error) {
	slog.Error("fsnotify error", slog.String("task", t.id.String()), slog.Any("error", err))
	t.handler.HandleEvent(Event{Task: t.id, Kind: KindError, Err: err})
}

func (t *Task) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := addRecursive(t.watcher, path); err != nil {
		slog.Warn("watch new directory", slog.String("path", path), slog.Any("error", err))
	}
}

// addRecursive registers root and, when root is a directory, every directory
// below it. Subdirectories that vanish or cannot be read are skipped.
func addRecursive(w fsWatcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Debug("skip unreadable path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := w.Add(path); err != nil {
			if path == root {
				return err
			}
			slog.Warn("watch directory", slog.String("path", path), slog.Any("error", err))
		}
		return nil
	})
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
