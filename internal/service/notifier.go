package service

import (
	"sync"

	"github.com/thiagokokada/gitstruct/internal/watch"
)

// Notifier is told about every event a watch task started by the service
// delivers, including watcher errors.
type Notifier interface {
	OnChanged(ev watch.Event)
}

// Nop ignores all events; it is the notifier of a headless service.
type Nop struct{}

func (Nop) OnChanged(watch.Event) {}

type NotifierFunc func(ev watch.Event)

func (f NotifierFunc) OnChanged(ev watch.Event) { f(ev) }

// Shared serializes calls into a notifier that several services or watch
// tasks report to.
type Shared struct {
	mu sync.Mutex
	n  Notifier
}

func NewShared(n Notifier) *Shared {
	if n == nil {
		n = Nop{}
	}
	return &Shared{n: n}
}

func (s *Shared) OnChanged(ev watch.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n.OnChanged(ev)
}
