package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benaskins/watchcat/internal/target"
)

func TestCheckPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	if err := os.WriteFile(file, []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, valid := checkPaths([]string{dir, file, filepath.Join(dir, "missing")})
	if valid != 2 {
		t.Fatalf("expected 2 valid, got %d: %+v", valid, results)
	}
	if results[0].Type != "directory" || results[1].Type != "file" {
		t.Errorf("unexpected types: %+v", results)
	}
	if results[2].Valid || results[2].Error == "" {
		t.Errorf("expected missing path to fail with a reason: %+v", results[2])
	}
}

func TestRunCheckJSON(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	checkCmd.SetOut(&out)
	checkCmd.SetErr(&bytes.Buffer{})
	if err := checkCmd.Flags().Set("json", "true"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		checkCmd.Flags().Set("json", "false")
		checkCmd.SetOut(nil)
		checkCmd.SetErr(nil)
	})

	if err := runCheck(checkCmd, []string{dir}); err != nil {
		t.Fatalf("runCheck: %v", err)
	}

	var results []checkResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if len(results) != 1 || !results[0].Valid || results[0].Type != "directory" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestRunCheckNoneValid(t *testing.T) {
	var out, errOut bytes.Buffer
	checkCmd.SetOut(&out)
	checkCmd.SetErr(&errOut)
	t.Cleanup(func() {
		checkCmd.SetOut(nil)
		checkCmd.SetErr(nil)
	})

	err := runCheck(checkCmd, []string{filepath.Join(t.TempDir(), "gone")})
	if !errors.Is(err, target.ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if !strings.HasPrefix(errOut.String(), "FAIL") {
		t.Errorf("expected FAIL line, got %q", errOut.String())
	}
}
