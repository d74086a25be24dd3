package target

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()

	tgt, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !tgt.Dir {
		t.Error("expected directory target")
	}
	if tgt.WatchDir() != tgt.Path {
		t.Errorf("expected watch dir %s, got %s", tgt.Path, tgt.WatchDir())
	}
	if tgt.Name() != "" {
		t.Errorf("expected empty name for directory, got %q", tgt.Name())
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tgt, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tgt.Dir {
		t.Error("expected file target")
	}
	if tgt.Name() != "main.go" {
		t.Errorf("expected name main.go, got %q", tgt.Name())
	}
	if tgt.WatchDir() != filepath.Dir(tgt.Path) {
		t.Errorf("expected parent dir, got %s", tgt.WatchDir())
	}
}

func TestResolveRelativeBecomesAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.Mkdir("src", 0755); err != nil {
		t.Fatal(err)
	}

	tgt, err := Resolve("src")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !filepath.IsAbs(tgt.Path) {
		t.Errorf("expected absolute path, got %s", tgt.Path)
	}
}

func TestResolveMissing(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.txt"))
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := Resolve(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestResolveAllSkipsInvalid(t *testing.T) {
	dir := t.TempDir()

	targets, err := ResolveAll([]string{filepath.Join(dir, "missing"), dir, dir}, quietLogger())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("expected 1 target after skipping invalid and duplicate, got %d", len(targets))
	}
}

func TestResolveAllNoTargets(t *testing.T) {
	dir := t.TempDir()

	_, err := ResolveAll([]string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}, quietLogger())
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got %v", err)
	}
}
