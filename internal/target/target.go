// Package target resolves user-supplied paths into watch targets.
package target

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNoTargets is returned when none of the supplied paths could be watched.
var ErrNoTargets = errors.New("no valid watch targets")

// Target is an absolute path to watch. Directories are watched recursively;
// a file is watched through its parent directory, filtered to its name.
type Target struct {
	Path string
	Dir  bool
}

// WatchDir returns the directory that must be registered with the OS.
func (t Target) WatchDir() string {
	if t.Dir {
		return t.Path
	}
	return filepath.Dir(t.Path)
}

// Name returns the base name a file target filters on. Empty for directories.
func (t Target) Name() string {
	if t.Dir {
		return ""
	}
	return filepath.Base(t.Path)
}

func (t Target) String() string {
	if t.Dir {
		return t.Path + string(filepath.Separator)
	}
	return t.Path
}

// InvalidError reports a path that does not exist as a file or directory.
type InvalidError struct {
	Path string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("path %s is invalid: %v", e.Path, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Resolve turns path into an absolute Target.
func Resolve(path string) (Target, error) {
	if path == "" {
		return Target{}, &InvalidError{Path: path, Err: errors.New("empty path")}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Target{}, &InvalidError{Path: path, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Target{}, &InvalidError{Path: path, Err: err}
	}

	mode := info.Mode()
	if !mode.IsDir() && !mode.IsRegular() {
		return Target{}, &InvalidError{Path: path, Err: fmt.Errorf("unsupported file type %s", mode.Type())}
	}

	return Target{Path: abs, Dir: mode.IsDir()}, nil
}

// ResolveAll resolves every path, skipping invalid ones with a warning.
// Duplicates are dropped. Returns ErrNoTargets if nothing remains.
func ResolveAll(paths []string, logger *slog.Logger) ([]Target, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool)
	var targets []Target
	for _, p := range paths {
		t, err := Resolve(p)
		if err != nil {
			logger.Warn("path is invalid and will be skipped", "path", p, "error", err)
			continue
		}
		if seen[t.Path] {
			continue
		}
		seen[t.Path] = true
		targets = append(targets, t)
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}
