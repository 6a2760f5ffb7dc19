//go:build windows

package service

import (
	"os/exec"
	"strconv"
	"syscall"

	"github.com/mkerrs/stackmate/internal/registry"
)

const createNewConsole = 0x00000010

type platformLauncher struct{}

func (platformLauncher) Spawn(req SpawnRequest) (*registry.Handle, error) {
	// /k keeps the console open so dev-server output stays visible
	// independently of the host application.
	// #nosec G204
	cmd := exec.Command("cmd", "/k", req.Command)
	cmd.Dir = req.Key.ProjectPath
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewConsole}
	// Output goes to the new console; log writers are not wired here.
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := registry.NewHandle(req.Key, cmd.Process, req.Command)
	go func() { _ = cmd.Wait() }()
	return h, nil
}

func (platformLauncher) Terminate(h *registry.Handle) error {
	if h.Process() == nil {
		return nil
	}
	// A cmd-spawned dev server commonly forks further children; /T kills
	// the whole tree, /F forcefully.
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(h.PID)).Run()
}
