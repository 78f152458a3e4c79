//go:build windows

package corral

import (
	"errors"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

// signalTerm always fails on Windows, which makes Stop escalate straight to
// the forced kill.
func signalTerm(cmd *exec.Cmd) error {
	return errors.New("cooperative termination not supported")
}

func forceKill(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
}
