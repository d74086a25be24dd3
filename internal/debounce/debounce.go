// Package debounce implements a single-timer, trailing-edge debouncer.
package debounce

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of Trigger calls into one call of fn, made
// delay after the last Trigger. With delay <= 0 every Trigger calls fn
// synchronously.
//
// Arm, cancel and fire are serialized on mu. Every arm bumps seq, so a timer
// callback that was already running when it got re-armed sees a stale seq
// and returns without calling fn; the newer timer still fires.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	fn       func()
	timer    *time.Timer
	seq      uint64
	armed    bool
	stopped  bool
	deadline time.Time
}

// New creates an idle debouncer.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
	}
}

// Trigger records a qualifying event.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.delay <= 0 {
		d.mu.Unlock()
		d.fn()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.armed = true
	d.deadline = time.Now().Add(d.delay)
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
	d.mu.Unlock()
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || !d.armed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.armed = false
	d.timer = nil
	d.deadline = time.Time{}
	d.mu.Unlock()

	d.fn()
}

// Cancel drops a pending fire. Returns true if one was armed.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	wasArmed := d.armed
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.armed = false
	d.deadline = time.Time{}
	return wasArmed
}

// Stop cancels any pending fire and ignores all later Triggers.
// Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a fire is armed and when it is due.
func (d *Debouncer) Pending() (bool, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed, d.deadline
}

// Delay returns the configured window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
