//go:build !windows
// +build !windows

package supervisor

import (
	"context"
	"os"
	"syscall"
)

// appendUnixSignals appends Unix-specific signals to the signals slice
func appendUnixSignals(signals []os.Signal) []os.Signal {
	return append(signals, syscall.SIGUSR1)
}

// handleUnixSignal handles Unix-specific signals
func handleUnixSignal(s *Supervisor, ctx context.Context, sig os.Signal) bool {
	if sig == syscall.SIGUSR1 {
		// Manual backend status dump (Unix only)
		s.logStatus(ctx)
		return true
	}
	return false
}

// sysProcAttr places the backend in its own process group so that
// termination signals reach its children too
func sysProcAttr() *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	applyDeathSignal(attr)
	return attr
}

// terminateProcess asks the backend to shut down, signaling the whole
// process group when possible
func terminateProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return p.Signal(syscall.SIGTERM)
}

// killProcess forcibly kills the backend process group
func killProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return p.Kill()
}
