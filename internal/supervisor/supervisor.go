package supervisor

import (
	"os"
	"sync"
	"syscall"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// managed is the per-binding state machine. valid is computed once at
// construction; running and handle mutate for the life of the daemon.
type managed struct {
	binding config.CommandBinding
	valid   bool
	running bool
	handle  Handle
	// done is closed by the reaper once the current child has been waited
	// for. Only set while running a non-oneshot child.
	done chan struct{}
}

// Supervisor owns the managed command bindings and their children.
//
// The mutex serialises state transitions between the dispatch path and the
// background exit reaper, so an EnsureRunning racing a child's exit
// notification sees consistent running/handle state.
type Supervisor struct {
	mu       sync.Mutex
	procs    []*managed
	launcher Launcher
	logger   Logger
}

// New builds the supervisor from the configured command bindings.
//
// Each command path is checked once: it must exist, be a regular file, and
// be executable. Bindings failing the check are logged and permanently
// excluded from dispatch; this is not a startup error.
func New(bindings []config.CommandBinding, launcher Launcher, logger Logger) *Supervisor {
	if logger == nil {
		logger = noopLogger{}
	}

	s := &Supervisor{launcher: launcher, logger: logger}
	for _, b := range bindings {
		m := &managed{binding: b, valid: validCommand(b.Command)}
		if !m.valid {
			logger.Warn("command not executable, excluded from dispatch",
				"link", b.Link,
				"command", b.Command,
			)
		}
		s.procs = append(s.procs, m)
	}
	return s
}

// validCommand reports whether path names an executable regular file.
func validCommand(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// Apply drives every valid binding whose link identifier joins with link:
// true ensures the command is running, false ensures it is stopped.
func (s *Supervisor) Apply(link string, on bool) {
	for _, m := range s.procs {
		if !m.valid || !config.LinkMatch(link, m.binding.Link) {
			continue
		}
		if on {
			s.ensureRunning(m)
		} else {
			s.ensureStopped(m)
		}
	}
}

// ensureRunning transitions a binding to Running. Already-running bindings
// are a logged no-op; that guard is what makes repeated ON messages safe.
func (s *Supervisor) ensureRunning(m *managed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.running {
		s.logger.Info("process already running",
			"link", m.binding.Link,
			"command", m.binding.Command,
			"pid", m.handle.PID(),
		)
		return
	}

	handle, err := s.launcher.Start(m.binding.Command)
	if err != nil {
		// No retry; the binding stays Stopped until the next ON.
		s.logger.Error("spawn failed",
			"link", m.binding.Link,
			"command", m.binding.Command,
			"error", err,
		)
		return
	}

	m.running = true
	m.handle = handle
	s.logger.Info("process started",
		"link", m.binding.Link,
		"command", m.binding.Command,
		"pid", handle.PID(),
		"oneshot", m.binding.Oneshot,
	)

	if m.binding.Oneshot {
		// Wait synchronously, stalling dispatch until the child exits.
		err := handle.Wait()
		m.running = false
		m.handle = nil
		if err != nil {
			s.logger.Warn("oneshot command finished",
				"link", m.binding.Link,
				"command", m.binding.Command,
				"error", err,
			)
		} else {
			s.logger.Debug("oneshot command finished",
				"link", m.binding.Link,
				"command", m.binding.Command,
			)
		}
		return
	}

	m.done = make(chan struct{})
	go s.reap(m, handle, m.done)
}

// reap waits for a non-oneshot child and records its exit. The handle check
// guards against the binding having been restarted with a new child by the
// time an old reaper fires.
func (s *Supervisor) reap(m *managed, h Handle, done chan struct{}) {
	err := h.Wait()

	s.mu.Lock()
	if m.handle == h {
		m.running = false
		m.handle = nil
		m.done = nil
	}
	s.mu.Unlock()
	close(done)

	if err != nil {
		s.logger.Warn("process exited",
			"link", m.binding.Link,
			"command", m.binding.Command,
			"error", err,
		)
	} else {
		s.logger.Debug("process exited",
			"link", m.binding.Link,
			"command", m.binding.Command,
		)
	}
}

// ensureStopped transitions a binding to Stopped. Already-stopped bindings
// are a silent no-op: no signal is sent.
func (s *Supervisor) ensureStopped(m *managed) {
	s.mu.Lock()
	if !m.running {
		s.logger.Debug("process already stopped", "link", m.binding.Link)
		s.mu.Unlock()
		return
	}
	h := m.handle
	done := m.done
	s.mu.Unlock()

	s.logger.Info("stopping process",
		"link", m.binding.Link,
		"command", m.binding.Command,
		"pid", h.PID(),
	)
	if err := h.Signal(syscall.SIGTERM); err != nil {
		s.logger.Warn("signalling process",
			"link", m.binding.Link,
			"pid", h.PID(),
			"error", err,
		)
	}

	// Block until the reaper has collected the exit. There is no timeout:
	// a child that ignores SIGTERM stalls dispatch here.
	<-done
	s.logger.Info("process stopped", "link", m.binding.Link)
}

// IsRunning reports whether any binding joined to link is currently Running.
func (s *Supervisor) IsRunning(link string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.procs {
		if config.LinkMatch(link, m.binding.Link) && m.running {
			return true
		}
	}
	return false
}

// StopAll terminates every running child. Called once at shutdown.
func (s *Supervisor) StopAll() {
	for _, m := range s.procs {
		s.ensureStopped(m)
	}
}
