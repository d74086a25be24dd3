package coordinator

import (
	"time"

	"github.com/benaskins/watchcat/internal/source"
	"golang.org/x/time/rate"
)

const (
	watchErrorBurst    = 3
	watchErrorInterval = time.Second
)

// errorLimiter throttles WatchError logging for one source. A source whose
// OS buffer overflows can report errors far faster than anyone can read them.
type errorLimiter struct {
	limiter    *rate.Limiter
	suppressed int
}

func (c *Coordinator) logWatchError(ev source.Event) {
	el, ok := c.errLog[ev.Root]
	if !ok {
		el = &errorLimiter{limiter: rate.NewLimiter(rate.Every(watchErrorInterval), watchErrorBurst)}
		c.errLog[ev.Root] = el
	}

	if !el.limiter.Allow() {
		el.suppressed++
		return
	}

	args := []any{"path", ev.Root, "error", ev.Err}
	if el.suppressed > 0 {
		args = append(args, "suppressed", el.suppressed)
		el.suppressed = 0
	}
	c.logger.Error("watcher error", args...)
}
