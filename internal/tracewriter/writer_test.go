package tracewriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thing-king/timetrace/internal/trace"
)

func TestWriterEmitsDenseSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	w := New()
	if err := w.Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}

	w.Emit("t.src", 1, 0, "var x = 10", map[string]string{})
	w.Emit("t.src", 2, 0, "x = x + 1", map[string]string{"x": "10"})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := trace.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Step != 0 || events[1].Step != 1 {
		t.Errorf("steps not dense from 0: %+v", events)
	}
	if events[1].Vars["x"] != "10" {
		t.Errorf("expected vars[x]=10, got %+v", events[1].Vars)
	}
}

func TestWriterScopeTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	w := New()
	if err := w.Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}

	w.Emit("t.src", 1, 0, "var y = n*2", map[string]string{})
	w.EnterScope("f")
	w.Emit("t.src", 2, 0, "var y = n*2", map[string]string{"n": "5"})
	w.Emit("t.src", 3, 0, "echo y", map[string]string{"n": "5", "y": "10"})
	w.ExitScope()
	w.Emit("t.src", 4, 0, "echo done", map[string]string{})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, _ := trace.Load(path)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Depth != 0 || events[0].Scope != trace.ModuleScope {
		t.Errorf("event 0 should be at module scope depth 0, got %+v", events[0])
	}
	if events[1].Depth != 1 || events[1].Scope != "f" {
		t.Errorf("event 1 should be depth 1 scope f, got %+v", events[1])
	}
	if events[3].Depth != 0 || events[3].Scope != trace.ModuleScope {
		t.Errorf("event 3 should be back at module scope, got %+v", events[3])
	}
}

func TestWriterExitScopeClampsAtZero(t *testing.T) {
	w := New()
	path := filepath.Join(t.TempDir(), "t.trace")
	if err := w.Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.ExitScope()
	w.ExitScope()
	w.Emit("t.src", 1, 0, "x", map[string]string{})
	w.Close()
	events, _ := trace.Load(path)
	if events[0].Depth != 0 {
		t.Errorf("depth should clamp at 0, got %d", events[0].Depth)
	}
}

func TestWriterOpenFailureDoesNotPanic(t *testing.T) {
	// A directory path can never be opened as a regular file for writing.
	dir := t.TempDir()
	w := New()
	if err := w.Init(dir); err != nil {
		t.Fatalf("Init should swallow open failure, got err: %v", err)
	}
	// Emit must not panic even though the underlying file never opened.
	w.Emit("t.src", 1, 0, "x", map[string]string{})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWriterWritesSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.trace")
	w := New()
	if err := w.Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.Emit("t.src", 1, 0, "var x = 10", map[string]string{})
	w.EnterScope("f")
	w.Emit("t.src", 2, 0, "echo x", map[string]string{"x": "10"})
	w.ExitScope()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ".summary")
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "# Debug Summary\n") {
		t.Errorf("summary missing header: %q", s)
	}
	if !strings.Contains(s, "# Total steps: 2") {
		t.Errorf("summary missing total steps: %q", s)
	}
	if !strings.Contains(s, "<module> -> f") {
		t.Errorf("summary missing scope chain: %q", s)
	}
	if !strings.Contains(s, "vars: x=10") {
		t.Errorf("summary missing vars line: %q", s)
	}
}

func TestResolvePathPrecedence(t *testing.T) {
	t.Setenv(PathEnvVar, "/tmp/env.trace")
	if got := resolvePath("/tmp/explicit.trace"); got != "/tmp/explicit.trace" {
		t.Errorf("explicit path should win, got %q", got)
	}
	if got := resolvePath(""); got != "/tmp/env.trace" {
		t.Errorf("env var should win over default, got %q", got)
	}
	t.Setenv(PathEnvVar, "")
	if got := resolvePath(""); got != DefaultPath {
		t.Errorf("default path should apply, got %q", got)
	}
}
