//go:build !linux && !windows
// +build !linux,!windows

package supervisor

import "syscall"

// applyDeathSignal is a no-op outside Linux, where no parent-death
// signal exists
func applyDeathSignal(attr *syscall.SysProcAttr) {}
