// Package logbuf splits child process output into lines, echoes them to a
// sink and keeps the most recent ones for diagnostics.
package logbuf

import (
	"bytes"
	"sync"
)

// Ring is a thread-safe line buffer that keeps the last N lines written to it.
// It implements io.Writer so it can be a child's stdout and stderr at once.
type Ring struct {
	mu    sync.Mutex
	buf   []string
	start int // index of the oldest line
	count int
	sink  func(line string)
	tail  []byte // bytes after the last newline
}

// New creates a ring that retains n lines. sink, if non-nil, is called with
// every complete line in write order.
func New(n int, sink func(line string)) *Ring {
	if n <= 0 {
		n = 1
	}
	return &Ring{
		buf:  make([]string, n),
		sink: sink,
	}
}

// Write implements io.Writer.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := p
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		line := data[:i]
		if len(r.tail) > 0 {
			line = append(r.tail, line...)
			r.tail = nil
		}
		r.push(string(bytes.TrimRight(line, "\r")))
		data = data[i+1:]
	}
	r.tail = append(r.tail, data...)

	return len(p), nil
}

// Flush emits any trailing partial line. Call it after the writer's
// producer has exited.
func (r *Ring) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tail) == 0 {
		return
	}
	line := string(r.tail)
	r.tail = nil
	r.push(line)
}

func (r *Ring) push(line string) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = line
		r.count++
	} else {
		r.buf[r.start] = line
		r.start = (r.start + 1) % len(r.buf)
	}
	if r.sink != nil {
		r.sink(line)
	}
}

// Lines returns the retained lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, r.count)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Last returns up to n of the most recent lines.
func (r *Ring) Last(n int) []string {
	all := r.Lines()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
