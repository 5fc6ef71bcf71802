//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// detach puts the child in a new session so it survives the watchdog
func detach(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// killGroupOnCancel puts the child in its own process group and kills the
// whole group when the command's context is done
func killGroupOnCancel(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
