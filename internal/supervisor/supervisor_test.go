package supervisor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// fakeHandle is a controllable child process stand-in. Wait blocks until the
// test (or a SIGTERM via fakeLauncher) pushes an exit.
type fakeHandle struct {
	pid  int
	exit chan error

	mu       sync.Mutex
	signals  []os.Signal
	onSignal func(os.Signal)
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, exit: make(chan error, 1)}
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Signal(sig os.Signal) error {
	h.mu.Lock()
	h.signals = append(h.signals, sig)
	fn := h.onSignal
	h.mu.Unlock()
	if fn != nil {
		fn(sig)
	}
	return nil
}

func (h *fakeHandle) Wait() error { return <-h.exit }

func (h *fakeHandle) signalCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.signals)
}

// fakeLauncher hands out fakeHandles and records every Start call.
type fakeLauncher struct {
	mu      sync.Mutex
	started []string
	handles []*fakeHandle
	nextPID int
	// dieOnSignal makes spawned handles exit when signalled, mimicking a
	// well-behaved child.
	dieOnSignal bool
	startErr    error
}

func (l *fakeLauncher) Start(command string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startErr != nil {
		return nil, l.startErr
	}
	l.nextPID++
	h := newFakeHandle(l.nextPID)
	if l.dieOnSignal {
		h.onSignal = func(os.Signal) { h.exit <- nil }
	}
	l.started = append(l.started, command)
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) startCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.started)
}

func (l *fakeLauncher) handle(i int) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[i]
}

// writeExecutable creates a regular file with the execute bit set so the
// startup validity check passes.
func writeExecutable(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func binding(link, command string, oneshot bool) config.CommandBinding {
	return config.CommandBinding{Link: link, Command: command, Oneshot: oneshot}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApplyOnStartsProcessOnce(t *testing.T) {
	cmd := writeExecutable(t, "pump")
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{binding("pump0", cmd, false)}, launcher, nil)

	s.Apply("pump0", true)
	s.Apply("pump0", true)

	if got := launcher.startCount(); got != 1 {
		t.Fatalf("start count = %d, want 1", got)
	}
	if !s.IsRunning("pump0") {
		t.Fatal("binding should be running after ON")
	}
}

func TestApplyOffNeverStartedSendsNoSignal(t *testing.T) {
	cmd := writeExecutable(t, "pump")
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{binding("pump0", cmd, false)}, launcher, nil)

	s.Apply("pump0", false)

	if got := launcher.startCount(); got != 0 {
		t.Fatalf("start count = %d, want 0", got)
	}
}

func TestApplyOffStopsRunningProcess(t *testing.T) {
	cmd := writeExecutable(t, "pump")
	launcher := &fakeLauncher{dieOnSignal: true}
	s := New([]config.CommandBinding{binding("pump0", cmd, false)}, launcher, nil)

	s.Apply("pump0", true)
	s.Apply("pump0", false)

	h := launcher.handle(0)
	if got := h.signalCount(); got != 1 {
		t.Fatalf("signal count = %d, want 1", got)
	}
	if s.IsRunning("pump0") {
		t.Fatal("binding should be stopped after OFF")
	}

	// A second OFF must not signal a process that is no longer there.
	s.Apply("pump0", false)
	if got := h.signalCount(); got != 1 {
		t.Fatalf("signal count after repeated OFF = %d, want 1", got)
	}
}

func TestOneshotReturnsStoppedSynchronously(t *testing.T) {
	cmd := writeExecutable(t, "beep")
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{binding("buzzer", cmd, true)}, launcher, nil)

	// Apply blocks in the synchronous Wait until the fake child exits, so
	// run it off the test goroutine and release it from here.
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Apply("buzzer", true)
	}()
	waitFor(t, "spawn", func() bool { return launcher.startCount() == 1 })
	launcher.handle(0).exit <- nil
	<-done

	if s.IsRunning("buzzer") {
		t.Fatal("oneshot binding should be stopped after the command exits")
	}

	// ON again spawns a fresh instance since the previous one completed.
	go s.Apply("buzzer", true)
	waitFor(t, "respawn", func() bool { return launcher.startCount() == 2 })
	launcher.handle(1).exit <- nil
}

func TestNaturalExitObservedByReaper(t *testing.T) {
	cmd := writeExecutable(t, "pump")
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{binding("pump0", cmd, false)}, launcher, nil)

	s.Apply("pump0", true)
	launcher.handle(0).exit <- nil

	waitFor(t, "reaped exit", func() bool { return !s.IsRunning("pump0") })

	// After the crash a new ON must start a new instance.
	s.Apply("pump0", true)
	if got := launcher.startCount(); got != 2 {
		t.Fatalf("start count = %d, want 2", got)
	}
}

func TestInvalidCommandExcludedFromDispatch(t *testing.T) {
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{
		binding("pump0", filepath.Join(t.TempDir(), "missing"), false),
	}, launcher, nil)

	s.Apply("pump0", true)

	if got := launcher.startCount(); got != 0 {
		t.Fatalf("start count = %d, want 0 for invalid command", got)
	}
}

func TestNonExecutableFileExcluded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("not a program"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{binding("pump0", path, false)}, launcher, nil)

	s.Apply("pump0", true)

	if got := launcher.startCount(); got != 0 {
		t.Fatalf("start count = %d, want 0 for non-executable file", got)
	}
}

func TestSpawnFailureLeavesBindingStopped(t *testing.T) {
	cmd := writeExecutable(t, "pump")
	launcher := &fakeLauncher{startErr: os.ErrPermission}
	s := New([]config.CommandBinding{binding("pump0", cmd, false)}, launcher, nil)

	s.Apply("pump0", true)
	if s.IsRunning("pump0") {
		t.Fatal("binding must stay stopped when spawn fails")
	}

	// Retry on the next ON once the launcher recovers.
	launcher.mu.Lock()
	launcher.startErr = nil
	launcher.mu.Unlock()
	s.Apply("pump0", true)
	if !s.IsRunning("pump0") {
		t.Fatal("binding should be running after successful retry")
	}
}

func TestLinkPrefixSelectsMultipleBindings(t *testing.T) {
	pump := writeExecutable(t, "pump")
	fan := writeExecutable(t, "fan")
	launcher := &fakeLauncher{}
	s := New([]config.CommandBinding{
		binding("pump0", pump, false),
		binding("pump1", pump, false),
		binding("fan0", fan, false),
	}, launcher, nil)

	s.Apply("pump", true)

	if got := launcher.startCount(); got != 2 {
		t.Fatalf("start count = %d, want 2 for prefix link", got)
	}
	if s.IsRunning("fan0") {
		t.Fatal("fan binding must not be driven by pump link")
	}
}

func TestStopAllStopsEveryRunningProcess(t *testing.T) {
	pump := writeExecutable(t, "pump")
	launcher := &fakeLauncher{dieOnSignal: true}
	s := New([]config.CommandBinding{
		binding("pump0", pump, false),
		binding("pump1", pump, false),
	}, launcher, nil)

	s.Apply("pump0", true)
	s.Apply("pump1", true)
	s.StopAll()

	if s.IsRunning("pump0") || s.IsRunning("pump1") {
		t.Fatal("all bindings should be stopped after StopAll")
	}
	if got := launcher.handle(0).signalCount(); got != 1 {
		t.Fatalf("pump0 signal count = %d, want 1", got)
	}
	if got := launcher.handle(1).signalCount(); got != 1 {
		t.Fatalf("pump1 signal count = %d, want 1", got)
	}
}
