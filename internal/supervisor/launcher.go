package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Handle identifies one spawned child process.
type Handle interface {
	PID() int
	Signal(sig os.Signal) error
	// Wait blocks until the child exits and reaps it. Call at most once.
	Wait() error
}

// Launcher spawns child processes. Implementations must start the command
// detached from the daemon's own signal handling so a Ctrl+C at the terminal
// does not kill managed children before the supervisor stops them.
type Launcher interface {
	Start(command string) (Handle, error)
}

// ExecLauncher starts commands via os/exec, each in its own process group.
type ExecLauncher struct{}

// Start implements Launcher. The command runs with no arguments, inheriting
// the daemon's environment.
func (ExecLauncher) Start(command string) (Handle, error) {
	cmd := exec.Command(command)
	// New process group so signals target the child and its descendants,
	// not the daemon.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) PID() int {
	return h.cmd.Process.Pid
}

// Signal delivers sig to the child's process group. A child that already
// exited is not an error.
func (h *execHandle) Signal(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return h.cmd.Process.Signal(sig)
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, s); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
	return nil
}

func (h *execHandle) Wait() error {
	return h.cmd.Wait()
}
