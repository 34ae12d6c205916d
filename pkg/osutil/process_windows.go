//go:build windows

package osutil

import (
	"os"
	"os/exec"
	"syscall"
)

// KillProcessGroupOnCancel starts cmd in a new process group and kills the
// process on context cancellation. Children may survive on Windows.
func KillProcessGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Kill)
	}
}
