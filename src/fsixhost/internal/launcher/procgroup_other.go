//go:build !unix

package launcher

import "os/exec"

func killGroupOnCancel(cmd *exec.Cmd) {}
