//go:build linux
// +build linux

package supervisor

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// applyDeathSignal asks the kernel to deliver SIGTERM to the backend if
// the launcher dies without running its shutdown path
func applyDeathSignal(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = unix.SIGTERM
}
