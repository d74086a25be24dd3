// Package source defines the Event Source capability consumed by the
// coordinator and implements it on top of fsnotify.
//
// A Source delivers ChangeEvents to its subscribers from its own goroutine.
// While inactive (SetActive(false)) a Source keeps observing the filesystem
// but discards everything it sees before any subscriber is called.
package source

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Kind tags a ChangeEvent.
type Kind uint8

const (
	// Changed indicates a file's content was written.
	Changed Kind = iota + 1
	// Created indicates a file or directory appeared.
	Created
	// Deleted indicates a file or directory was removed.
	Deleted
	// Renamed indicates a file or directory was moved away from Path.
	Renamed
	// WatchError indicates the notification facility itself failed.
	WatchError
)

func (k Kind) String() string {
	switch k {
	case Changed:
		return "Changed"
	case Created:
		return "Created"
	case Deleted:
		return "Deleted"
	case Renamed:
		return "Renamed"
	case WatchError:
		return "WatchError"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Qualifies reports whether an event of this kind may trigger a launch.
func (k Kind) Qualifies() bool {
	return k >= Changed && k <= Renamed
}

// Event is a single ChangeEvent.
type Event struct {
	Kind Kind
	Path string    // absolute path of the affected entry
	Root string    // watch target the event came from
	Err  error     // set for WatchError only
	Time time.Time // when the source observed it
}

// Handler receives events. It is called on the source's goroutine and must not block.
type Handler func(Event)

// Subscription identifies a registered Handler.
type Subscription uint64

// Source is a running observer of one watch target.
type Source interface {
	// Root returns the watch target path.
	Root() string

	// Subscribe registers h and returns a handle for Unsubscribe.
	Subscribe(h Handler) Subscription

	// Unsubscribe removes a handler. Unknown handles are ignored.
	Unsubscribe(s Subscription)

	// SetActive toggles event raising. Inactive sources drop events.
	SetActive(active bool)

	// Active reports whether events are currently raised.
	Active() bool

	// Close stops observation and releases OS resources. Safe to call more than once.
	Close() error
}

// hub is the subscriber registry and raise-events flag shared by implementations.
type hub struct {
	mu       sync.RWMutex
	handlers map[Subscription]Handler
	next     Subscription
	active   atomic.Bool
	closed   bool
}

func (h *hub) Subscribe(fn Handler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.handlers == nil {
		h.handlers = make(map[Subscription]Handler)
	}
	h.next++
	h.handlers[h.next] = fn
	return h.next
}

func (h *hub) Unsubscribe(s Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, s)
}

func (h *hub) SetActive(active bool) {
	h.active.Store(active)
}

func (h *hub) Active() bool {
	return h.active.Load()
}

// emit delivers ev to every handler. Returns false if the event was dropped.
func (h *hub) emit(ev Event) bool {
	if !h.active.Load() {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed || len(h.handlers) == 0 {
		return false
	}
	for _, fn := range h.handlers {
		fn(ev)
	}
	return true
}

// shut deactivates the hub and forgets all handlers.
func (h *hub) shut() {
	h.active.Store(false)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.handlers = nil
}
