//go:build unix

package transport

import (
	"os/exec"
	"syscall"
)

// startInOwnGroup makes the host the leader of a new process group, so that anything it
// spawns can be stopped along with it.
func startInOwnGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// The group outlives its leader while any member is alive, so this also reaches
	// processes left behind by a host that has already exited.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}
