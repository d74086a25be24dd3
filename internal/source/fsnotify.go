package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benaskins/watchcat/internal/target"
	"github.com/fsnotify/fsnotify"
)

// FSNotify watches one target with an fsnotify watcher.
type FSNotify struct {
	hub

	target target.Target
	logger *slog.Logger

	watcher   *fsnotify.Watcher
	closeCh   chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// NewFSNotify registers t with the OS and starts delivering events.
// The source starts inactive; call SetActive(true) once subscribed.
func NewFSNotify(t target.Target, logger *slog.Logger) (*FSNotify, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	s := &FSNotify{
		target:  t,
		logger:  logger.With("root", t.Path),
		watcher: w,
		closeCh: make(chan struct{}),
	}

	if t.Dir {
		err = s.addRecursive(t.Path)
	} else {
		err = w.Add(t.WatchDir())
	}
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", t.Path, err)
	}

	s.wg.Add(1)
	go s.loop()

	return s, nil
}

// Root returns the target path.
func (s *FSNotify) Root() string {
	return s.target.Path
}

// Close stops the watcher and waits for the delivery goroutine to exit.
func (s *FSNotify) Close() error {
	s.closeOnce.Do(func() {
		s.hub.shut()
		close(s.closeCh)
		s.closeErr = s.watcher.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

func (s *FSNotify) loop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closeCh:
			return

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(ev)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.emit(Event{
				Kind: WatchError,
				Path: s.target.Path,
				Root: s.target.Path,
				Err:  err,
				Time: time.Now(),
			})
		}
	}
}

func (s *FSNotify) handle(ev fsnotify.Event) {
	if !s.target.Dir && filepath.Base(ev.Name) != s.target.Name() {
		return
	}

	kind := classify(ev.Op)
	if kind == 0 {
		return
	}

	// New subdirectories join the tree whether or not events are raised.
	if kind == Created && s.target.Dir {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := s.addRecursive(ev.Name); err != nil {
				s.logger.Debug("failed to watch new directory", "dir", ev.Name, "error", err)
			}
		}
	}

	path := ev.Name
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	s.emit(Event{
		Kind: kind,
		Path: path,
		Root: s.target.Path,
		Time: time.Now(),
	})
}

// classify maps fsnotify ops onto event kinds. Attribute-only changes are ignored.
func classify(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Create):
		return Created
	case op.Has(fsnotify.Remove):
		return Deleted
	case op.Has(fsnotify.Rename):
		return Renamed
	case op.Has(fsnotify.Write):
		return Changed
	default:
		return 0
	}
}

func (s *FSNotify) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip inaccessible
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			if path == root {
				return err
			}
			s.logger.Debug("failed to watch subdirectory", "dir", path, "error", err)
		}
		return nil
	})
}

var _ Source = (*FSNotify)(nil)
