package coordinator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benaskins/watchcat/internal/source"
)

// WatcherSet is the live collection of event sources. Suspend, resume and
// dispose are serialized on one lock; after Dispose every call is a no-op.
type WatcherSet struct {
	mu       sync.Mutex
	members  []member
	disposed bool
}

type member struct {
	src source.Source
	sub source.Subscription
}

func (w *WatcherSet) add(src source.Source, sub source.Subscription) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disposed {
		return false
	}
	w.members = append(w.members, member{src: src, sub: sub})
	return true
}

// SetActive toggles event raising on every member.
func (w *WatcherSet) SetActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disposed {
		return
	}
	for _, m := range w.members {
		m.src.SetActive(active)
	}
}

// Roots returns the watched paths.
func (w *WatcherSet) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	roots := make([]string, 0, len(w.members))
	for _, m := range w.members {
		roots = append(roots, m.src.Root())
	}
	return roots
}

// Len returns the number of live members.
func (w *WatcherSet) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.members)
}

// Dispose deactivates, unsubscribes and closes every member exactly once.
// It returns how many members were closed by this call.
func (w *WatcherSet) Dispose() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disposed {
		return 0, nil
	}
	w.disposed = true

	var errs []error
	for _, m := range w.members {
		m.src.SetActive(false)
		m.src.Unsubscribe(m.sub)
		if err := m.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing watcher %s: %w", m.src.Root(), err))
		}
	}
	n := len(w.members)
	w.members = nil
	return n, errors.Join(errs...)
}
