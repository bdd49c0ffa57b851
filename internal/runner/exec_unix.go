//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroupOnCancel starts the child in its own process group and
// makes context cancellation kill the whole group, so tools spawned by the
// child (npm runs scripts through sh) die with it.
func killProcessGroupOnCancel(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		// A negative pid addresses the process group.
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
