//go:build !windows

package service

import (
	"os/exec"
	"syscall"

	"github.com/mkerrs/stackmate/internal/registry"
)

type platformLauncher struct{}

func (platformLauncher) Spawn(req SpawnRequest) (*registry.Handle, error) {
	// #nosec G204
	cmd := exec.Command("/bin/sh", "-c", req.Command)
	cmd.Dir = req.Key.ProjectPath
	// New process group so Terminate can signal the shell and everything
	// it forked in one call.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if req.Stdout != nil {
		cmd.Stdout = req.Stdout
	}
	if req.Stderr != nil {
		cmd.Stderr = req.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := registry.NewHandle(req.Key, cmd.Process, req.Command)
	h.SetClosers(req.Stdout, req.Stderr)
	// Reap the child when it exits so it never lingers as a zombie.
	go func() {
		_ = cmd.Wait()
		h.CloseWriters()
	}()
	return h, nil
}

func (platformLauncher) Terminate(h *registry.Handle) error {
	if h.Process() == nil {
		return nil
	}
	return syscall.Kill(-h.PID, syscall.SIGKILL)
}
