//go:build unix

// Package osutil holds platform specific helpers for child processes.
package osutil

import (
	"os/exec"
	"syscall"
)

// KillProcessGroupOnCancel runs cmd in its own process group and makes
// context cancellation kill the whole group, so helpers spawned by the
// command (ssh, credential helpers) do not outlive it.
// Must be called before cmd.Start().
func KillProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
