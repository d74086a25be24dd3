package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceBurstFiresOnce(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan time.Time, 10)
	d := New(100*time.Millisecond, func() {
		calls.Add(1)
		fired <- time.Now()
	})
	defer d.Stop()

	var last time.Time
	for i := 0; i < 5; i++ {
		d.Trigger()
		last = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case at := <-fired:
		if elapsed := at.Sub(last); elapsed < 90*time.Millisecond {
			t.Errorf("fired %v after last trigger, expected ~100ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 call, got %d", n)
	}
}

func TestDebounceSingleTrigger(t *testing.T) {
	fired := make(chan struct{}, 1)
	d := New(20*time.Millisecond, func() { fired <- struct{}{} })
	defer d.Stop()

	d.Trigger()
	if armed, deadline := d.Pending(); !armed || deadline.IsZero() {
		t.Error("expected armed debouncer with deadline")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}

	if armed, _ := d.Pending(); armed {
		t.Error("expected idle after fire")
	}
}

func TestDebounceZeroDelayIsSynchronous(t *testing.T) {
	var calls int
	d := New(0, func() { calls++ })

	for i := 0; i < 3; i++ {
		d.Trigger()
		if calls != i+1 {
			t.Fatalf("expected %d synchronous calls, got %d", i+1, calls)
		}
	}
}

func TestDebounceCancel(t *testing.T) {
	var calls atomic.Int32
	d := New(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	d.Trigger()
	if !d.Cancel() {
		t.Error("expected Cancel to report an armed timer")
	}
	if d.Cancel() {
		t.Error("expected second Cancel to report nothing armed")
	}

	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no calls after cancel, got %d", n)
	}
}

func TestDebounceStopIgnoresTriggers(t *testing.T) {
	var calls atomic.Int32
	d := New(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Stop()
	d.Trigger()

	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no calls after stop, got %d", n)
	}

	z := New(0, func() { calls.Add(1) })
	z.Stop()
	z.Trigger()
	if n := calls.Load(); n != 0 {
		t.Errorf("expected stopped zero-delay debouncer to ignore triggers, got %d", n)
	}
}

func TestDebounceStaleFireDoesNotSuppressRearm(t *testing.T) {
	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })
	defer d.Stop()

	// Simulate a fire that was in flight when a new arm happened.
	d.Trigger()
	d.mu.Lock()
	stale := d.seq
	d.mu.Unlock()

	d.Trigger()
	d.fire(stale)

	if n := calls.Load(); n != 0 {
		t.Fatalf("stale fire must not call fn, got %d calls", n)
	}
	if armed, _ := d.Pending(); !armed {
		t.Fatal("stale fire must leave the newer arm pending")
	}

	d.mu.Lock()
	current := d.seq
	d.mu.Unlock()
	d.fire(current)

	if n := calls.Load(); n != 1 {
		t.Errorf("expected current fire to call fn once, got %d", n)
	}
}

func TestDebounceConcurrentTriggers(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{}, 10)
	d := New(50*time.Millisecond, func() {
		calls.Add(1)
		done <- struct{}{}
	})
	defer d.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Trigger()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}
