// Package launcher starts the configured executable and, when asked to wait,
// brackets the wait with a suspend/resume of the event sources so the child's
// own filesystem writes cannot retrigger it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/benaskins/watchcat/internal/journal"
	"github.com/benaskins/watchcat/internal/logbuf"
)

// WaitForever makes Launch block until the child exits.
const WaitForever time.Duration = -1

const defaultTailLines = 20

// Config describes how the child is started. It is read-only after New.
type Config struct {
	Executable  string
	Args        []string
	NoWindow    bool
	LoadProfile bool

	// WaitTimeout is 0 for fire-and-forget, negative to wait until exit,
	// positive for a bounded wait.
	WaitTimeout time.Duration

	// Stdout and Stderr receive the child's output. Default os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// TailLines is how many output lines are kept for a failed-exit report.
	TailLines int
}

// ArgString renders the argument list the way it was given on the command line.
func (c Config) ArgString() string {
	return strings.Join(c.Args, " ")
}

// Waits reports whether launches block on the child.
func (c Config) Waits() bool {
	return c.WaitTimeout != 0
}

// Suspender pauses and resumes event raising around a waited launch.
type Suspender interface {
	Suspend()
	Resume()
}

// Outcome classifies how a wait ended.
type Outcome int

const (
	// NotWaited means the launch was fire-and-forget or never started.
	NotWaited Outcome = iota
	// Exited means the child exited within the wait window.
	Exited
	// TimedOut means the bounded wait elapsed; the child keeps running.
	TimedOut
	// Failed means waiting itself errored.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotWaited:
		return "not_waited"
	case Exited:
		return "exited"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// WaitResult is the result of waiting on a started child.
type WaitResult struct {
	Outcome  Outcome
	ExitCode int
	Waited   time.Duration
	Err      error
}

// Result describes one Launch.
type Result struct {
	Started bool
	PID     int
	Wait    WaitResult
}

// Launcher runs the configured executable. Launches never overlap.
type Launcher struct {
	cfg       Config
	suspender Suspender
	journal   *journal.Journal
	logger    *slog.Logger

	mu sync.Mutex
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithJournal records every launch outcome to j.
func WithJournal(j *journal.Journal) Option {
	return func(l *Launcher) {
		l.journal = j
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// New creates a launcher. suspender may be nil when cfg never waits.
func New(cfg Config, suspender Suspender, opts ...Option) *Launcher {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = defaultTailLines
	}

	l := &Launcher{
		cfg:       cfg,
		suspender: suspender,
		logger:    slog.With("component", "launcher"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the launch configuration.
func (l *Launcher) Config() Config {
	return l.cfg
}

// Launch starts the executable. Without an executable it is a successful
// no-op. A start failure is logged and returned; it never affects watching.
//
// When the config waits, event sources are suspended before the child is
// started and resumed after the wait, on every path out of Launch.
func (l *Launcher) Launch(ctx context.Context) (Result, error) {
	if l.cfg.Executable == "" {
		return Result{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.Waits() && l.suspender != nil {
		l.suspender.Suspend()
		defer l.suspender.Resume()
	}

	l.logger.Info("starting program", "executable", l.cfg.Executable, "args", l.cfg.ArgString())

	c, err := l.start()
	if err != nil {
		l.logger.Error("failed to start program",
			"executable", l.cfg.Executable,
			"args", l.cfg.ArgString(),
			"error", err)
		l.record(journal.Entry{Action: journal.ActionLaunchFailed, Error: err.Error()})
		return Result{}, err
	}

	res := Result{Started: true, PID: c.pid}
	l.record(journal.Entry{Action: journal.ActionLaunchStarted, PID: c.pid})

	if !l.cfg.Waits() {
		l.logger.Debug("not waiting for program", "pid", c.pid)
		return res, nil
	}

	res.Wait = l.wait(ctx, c)
	return res, nil
}

// child is a started process whose exit is reported on done.
type child struct {
	pid  int
	ring *logbuf.Ring
	done chan exitStatus
}

type exitStatus struct {
	code int
	err  error
}

func (l *Launcher) start() (*child, error) {
	cmd := exec.Command(l.cfg.Executable, l.cfg.Args...)

	var ring *logbuf.Ring
	if l.cfg.Waits() {
		// Waited children have their output echoed line by line and the tail kept.
		stdout := l.cfg.Stdout
		ring = logbuf.New(l.cfg.TailLines, func(line string) {
			fmt.Fprintln(stdout, line)
		})
		cmd.Stdout = ring
		cmd.Stderr = ring
	} else {
		cmd.Stdout = l.cfg.Stdout
		cmd.Stderr = l.cfg.Stderr
	}

	if err := configure(cmd, l.cfg, l.logger); err != nil {
		return nil, fmt.Errorf("preparing process: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	c := &child{
		pid:  cmd.Process.Pid,
		ring: ring,
		done: make(chan exitStatus, 1),
	}

	// The reaper outlives a timed-out wait so the child is always collected.
	go func() {
		err := cmd.Wait()
		if ring != nil {
			ring.Flush()
		}

		st := exitStatus{code: 0}
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			st.code = exitErr.ExitCode()
		default:
			st.code = -1
			st.err = err
		}

		code := st.code
		entry := journal.Entry{Action: journal.ActionChildExited, PID: c.pid, ExitCode: &code}
		if st.err != nil {
			entry.Error = st.err.Error()
		}
		l.record(entry)
		l.logger.Debug("program exited", "pid", c.pid, "exit_code", st.code)

		c.done <- st
	}()

	return c, nil
}

func (l *Launcher) wait(ctx context.Context, c *child) WaitResult {
	began := time.Now()

	var timeout <-chan time.Time
	if l.cfg.WaitTimeout > 0 {
		timer := time.NewTimer(l.cfg.WaitTimeout)
		defer timer.Stop()
		timeout = timer.C
		l.logger.Debug("waiting for program", "pid", c.pid, "timeout", l.cfg.WaitTimeout)
	} else {
		l.logger.Debug("waiting for program indefinitely", "pid", c.pid)
	}

	var res WaitResult
	select {
	case st := <-c.done:
		res = WaitResult{Outcome: Exited, ExitCode: st.code, Err: st.err}
		if st.err != nil {
			res.Outcome = Failed
		}

	case <-timeout:
		res = WaitResult{Outcome: TimedOut, ExitCode: -1}

	case <-ctx.Done():
		res = WaitResult{Outcome: Failed, ExitCode: -1, Err: ctx.Err()}
	}
	res.Waited = time.Since(began)

	waited := res.Waited.Round(time.Millisecond).String()
	switch res.Outcome {
	case Exited:
		if res.ExitCode != 0 {
			l.logger.Warn("program exited with error",
				"pid", c.pid,
				"exit_code", res.ExitCode,
				"output", strings.Join(c.ring.Last(5), "\n"))
		} else {
			l.logger.Debug("program finished", "pid", c.pid, "waited", waited)
		}
	case TimedOut:
		l.logger.Warn("timed out waiting for program, leaving it running",
			"pid", c.pid, "timeout", l.cfg.WaitTimeout)
		l.record(journal.Entry{Action: journal.ActionWaitTimedOut, PID: c.pid, Waited: waited})
	case Failed:
		l.logger.Error("waiting for program failed", "pid", c.pid, "error", res.Err)
		l.record(journal.Entry{Action: journal.ActionWaitFailed, PID: c.pid, Waited: waited, Error: res.Err.Error()})
	}

	return res
}

func (l *Launcher) record(e journal.Entry) {
	if l.journal == nil {
		return
	}
	e.Executable = l.cfg.Executable
	e.Args = l.cfg.Args
	if err := l.journal.Record(e); err != nil {
		l.logger.Warn("failed to write journal", "error", err)
	}
}
