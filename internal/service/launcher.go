package service

import (
	"io"

	"github.com/mkerrs/stackmate/internal/registry"
)

// SpawnRequest carries everything a launcher needs to start one dev server.
// The command string runs through the platform's command interpreter, so it
// may contain shell syntax (pipes, env vars, &&).
type SpawnRequest struct {
	Key     registry.Key
	Command string
	Stdout  io.WriteCloser
	Stderr  io.WriteCloser
}

// Launcher hides the platform-specific spawn and terminate mechanics.
// Unix runs commands through /bin/sh in their own process group; Windows
// opens a dedicated console window and kills the whole process tree.
type Launcher interface {
	Spawn(req SpawnRequest) (*registry.Handle, error)
	Terminate(h *registry.Handle) error
}

// NewLauncher returns the launcher for the build platform.
func NewLauncher() Launcher { return platformLauncher{} }
