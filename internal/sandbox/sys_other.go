//go:build unix && !linux

package sandbox

import "syscall"

// No parent-death signal outside Linux; children are still killed by
// Terminate and by context cancellation.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}
