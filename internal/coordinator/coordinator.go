// Package coordinator ties event sources, the event queue, the debouncer and
// the launcher together, and owns shutdown.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/benaskins/watchcat/internal/config"
	"github.com/benaskins/watchcat/internal/debounce"
	"github.com/benaskins/watchcat/internal/journal"
	"github.com/benaskins/watchcat/internal/launcher"
	"github.com/benaskins/watchcat/internal/queue"
	"github.com/benaskins/watchcat/internal/source"
)

// Runner launches the configured program.
type Runner interface {
	Launch(ctx context.Context) (launcher.Result, error)
}

// Coordinator is the event-debounce and process-lifecycle controller.
//
// Sources push into a single queue; one processor goroutine drains it in
// order and feeds qualifying events to the debouncer, whose fire runs the
// launcher. The launcher calls back into Suspend/Resume around waited runs.
type Coordinator struct {
	cfg      config.LaunchConfig
	base     *slog.Logger
	logger   *slog.Logger
	journal  *journal.Journal
	events   *queue.Queue[source.Event]
	watchers *WatcherSet
	debounce *debounce.Debouncer
	runner   Runner

	gate     sync.Mutex // serializes arming against Suspend
	state    atomic.Int32
	launches atomic.Int64
	errLog   map[string]*errorLimiter // processor goroutine only

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	done         chan struct{}
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithLogger sets the base logger for the coordinator and the default launcher.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.base = logger
	}
}

// WithJournal records launch outcomes through the default launcher.
func WithJournal(j *journal.Journal) Option {
	return func(c *Coordinator) {
		c.journal = j
	}
}

// WithRunner replaces the default launcher. newRunner receives the
// coordinator as the Suspender for waited launches.
func WithRunner(newRunner func(launcher.Suspender) Runner) Option {
	return func(c *Coordinator) {
		c.runner = newRunner(c)
	}
}

// New creates a coordinator for cfg. Sources are attached with Start.
func New(cfg config.LaunchConfig, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		base:     slog.Default(),
		events:   queue.New[source.Event](),
		watchers: &WatcherSet{},
		errLog:   make(map[string]*errorLimiter),
		done:     make(chan struct{}),
	}
	c.state.Store(int32(StateStarting))

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.base.With("component", "coordinator")

	if c.runner == nil {
		c.runner = launcher.New(launcher.Config{
			Executable:  cfg.Executable,
			Args:        cfg.Args,
			NoWindow:    cfg.NoWindow,
			LoadProfile: cfg.LoadProfile,
			WaitTimeout: cfg.WaitTimeout,
		}, c,
			launcher.WithJournal(c.journal),
			launcher.WithLogger(c.base.With("component", "launcher")))
	}
	c.debounce = debounce.New(cfg.LaunchDelay, c.launch)
	return c
}

// Start attaches every source, activates it and starts the event processor.
// The coordinator runs until Shutdown or until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context, sources []source.Source) error {
	if len(sources) == 0 {
		return errors.New("no event sources")
	}
	if !c.state.CompareAndSwap(int32(StateStarting), int32(StateWatching)) {
		return fmt.Errorf("cannot start coordinator in state %s", c.State())
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	for _, src := range sources {
		sub := src.Subscribe(c.enqueue)
		if !c.watchers.add(src, sub) {
			src.Unsubscribe(sub)
			src.Close()
			continue
		}
		src.SetActive(true)
		c.logger.Info("watcher active", "path", src.Root())
	}

	c.wg.Add(1)
	go c.process()

	go func() {
		select {
		case <-c.ctx.Done():
			c.Shutdown()
		case <-c.done:
		}
	}()

	c.logger.Debug("coordinator started",
		"watchers", c.watchers.Len(),
		"launch_delay", c.cfg.LaunchDelay,
		"wait_timeout", c.cfg.WaitTimeout)
	return nil
}

// enqueue is the handler every source delivers to. It never blocks.
func (c *Coordinator) enqueue(ev source.Event) {
	c.events.Push(ev)
}

// process drains the queue in order until shutdown.
func (c *Coordinator) process() {
	defer c.wg.Done()

	for {
		for {
			if c.ctx.Err() != nil {
				return
			}
			ev, ok := c.events.Pop()
			if !ok {
				break
			}
			c.handle(ev)
		}

		select {
		case <-c.ctx.Done():
			return
		case <-c.events.Ready():
		}
	}
}

func (c *Coordinator) handle(ev source.Event) {
	switch {
	case ev.Kind == source.WatchError:
		c.logWatchError(ev)

	case ev.Kind.Qualifies():
		c.logger.Debug(ev.Kind.String(), "path", ev.Path)

		if !c.arm() {
			c.logger.Debug("ignoring event", "path", ev.Path, "state", c.State())
		}

	default:
		c.logger.Debug("ignoring unexpected event", "kind", ev.Kind, "path", ev.Path)
	}
}

// arm feeds one qualifying event to the debouncer. It reports false when the
// coordinator is not watching.
func (c *Coordinator) arm() bool {
	if c.debounce.Delay() <= 0 {
		// Zero delay launches on this goroutine, and only a launch suspends.
		if c.State() != StateWatching {
			return false
		}
		c.debounce.Trigger()
		return true
	}

	// Suspend takes gate too, so it can't land between the check and the arm.
	c.gate.Lock()
	defer c.gate.Unlock()
	if c.State() != StateWatching {
		return false
	}
	c.debounce.Trigger()
	return true
}

// launch is the debouncer callback.
func (c *Coordinator) launch() {
	if st := c.State(); st != StateWatching {
		c.logger.Debug("dropping launch", "state", st)
		return
	}
	c.launches.Add(1)
	// Failures are logged by the runner and never stop watching.
	_, _ = c.runner.Launch(c.ctx)
}

// Suspend stops event raising on every source for the duration of a waited
// launch. Events already queued are discarded and a pending fire is cancelled
// so nothing observed before the launch retriggers it.
func (c *Coordinator) Suspend() {
	c.gate.Lock()
	defer c.gate.Unlock()

	if !c.state.CompareAndSwap(int32(StateWatching), int32(StateSuspended)) {
		return
	}
	c.watchers.SetActive(false)
	dropped := c.events.Drain()
	c.debounce.Cancel()
	c.logger.Debug("watchers suspended", "dropped_events", dropped)
}

// Resume re-enables event raising after a waited launch.
func (c *Coordinator) Resume() {
	if !c.state.CompareAndSwap(int32(StateSuspended), int32(StateWatching)) {
		return
	}
	c.watchers.SetActive(true)
	c.logger.Debug("watchers resumed")
}

// Shutdown cancels any pending launch, disposes every source exactly once and
// stops the processor. Safe to call any number of times, from any goroutine.
func (c *Coordinator) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.state.Store(int32(StateShuttingDown))
		c.debounce.Stop()
		if c.cancel != nil {
			c.cancel()
		}

		n, err := c.watchers.Dispose()
		if err != nil {
			c.logger.Warn("failed to remove watchers", "error", err)
		}
		c.wg.Wait()

		if n > 0 {
			c.logger.Info("watchers removed", "count", n)
		}
		c.state.Store(int32(StateTerminated))
		close(c.done)
	})
}

// Done is closed once Shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Launches returns how many launches the debouncer has fired.
func (c *Coordinator) Launches() int64 {
	return c.launches.Load()
}

// Pending reports whether a debounced launch is armed.
func (c *Coordinator) Pending() bool {
	armed, _ := c.debounce.Pending()
	return armed
}

// Watchers returns the watched roots.
func (c *Coordinator) Watchers() []string {
	return c.watchers.Roots()
}

// QueueLen returns the number of events waiting to be processed.
func (c *Coordinator) QueueLen() int {
	return c.events.Len()
}
