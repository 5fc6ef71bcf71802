//go:build !unix

package process

import "os/exec"

func detach(c *exec.Cmd) {}

func killGroupOnCancel(c *exec.Cmd) {}
