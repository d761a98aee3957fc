//go:build windows
// +build windows

package supervisor

import (
	"context"
	"os"
	"syscall"
)

// appendUnixSignals appends Unix-specific signals to the signals slice
// On Windows, this is a no-op
func appendUnixSignals(signals []os.Signal) []os.Signal {
	return signals
}

// handleUnixSignal handles Unix-specific signals
// On Windows, this always returns false
func handleUnixSignal(s *Supervisor, ctx context.Context, sig os.Signal) bool {
	return false
}

// sysProcAttr returns no special attributes on Windows
func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

// terminateProcess kills the backend; Windows has no graceful
// termination signal for console-less children
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

// killProcess forcibly kills the backend process
func killProcess(p *os.Process) error {
	return p.Kill()
}
