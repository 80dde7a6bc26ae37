package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tochemey/goakt/v3/log"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return bytes.Count(b, []byte("\n"))
}

func TestRun_WritesOutputs(t *testing.T) {
	out := t.TempDir()
	opts := options{ticks: 5, dt: 1.0 / 60, outDir: out}
	if err := run(opts, log.DiscardLogger); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := countLines(t, filepath.Join(out, "stats.csv")); got != 6 {
		t.Errorf("stats.csv has %d lines, want header + 5", got)
	}
	for _, name := range []string{"agents.csv", "config.yaml", "final.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestRun_ScriptFailureKeepsRecordedTicks(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "target.tengo")
	// Divides by zero on tick 1.
	src := "x := 1 / (tick - 1)\ny := 0\n"
	if err := os.WriteFile(scriptPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	opts := options{ticks: 10, dt: 1.0 / 60, scriptFile: scriptPath, outDir: out}

	err := run(opts, log.DiscardLogger)
	if err == nil {
		t.Fatal("run succeeded with a failing script")
	}
	if !strings.Contains(err.Error(), "tick 1") {
		t.Errorf("error = %v, want it to name tick 1", err)
	}
	if got := countLines(t, filepath.Join(out, "stats.csv")); got != 2 {
		t.Errorf("stats.csv has %d lines, want header + the tick before the failure", got)
	}
	if _, err := os.Stat(filepath.Join(out, "final.json")); !os.IsNotExist(err) {
		t.Errorf("final.json written on a failed run: %v", err)
	}
}
