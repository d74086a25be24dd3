// Package journal records launch outcomes as newline-delimited JSON.
//
// The journal is append-only and optional; a nil *Journal accepts and
// discards every record.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Action describes what happened to a launch.
type Action string

const (
	ActionLaunchStarted Action = "launch_started"
	ActionLaunchFailed  Action = "launch_failed"
	ActionChildExited   Action = "child_exited"
	ActionWaitTimedOut  Action = "wait_timed_out"
	ActionWaitFailed    Action = "wait_failed"
)

// Entry is a single journal record.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Action     Action    `json:"action"`
	Executable string    `json:"executable"`
	Args       []string  `json:"args,omitempty"`
	PID        int       `json:"pid,omitempty"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	Waited     string    `json:"waited,omitempty"` // wait duration, e.g. "1.002s"
	Error      string    `json:"error,omitempty"`
}

// Journal appends entries to a file.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open creates or opens a journal file for appending.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Journal{file: f, path: path}, nil
}

// Record writes an entry. No-op on a nil Journal.
func (j *Journal) Record(entry Entry) error {
	if j == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing journal entry: %w", err)
	}
	return nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close closes the journal file. Safe to call more than once and on nil.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
