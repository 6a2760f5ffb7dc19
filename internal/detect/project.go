// Package detect inspects a project directory for two-tier dev-server
// structure and the ports those servers are configured to use.
package detect

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Service labels recognized by the detector and the process controller.
const (
	ServiceFrontend = "frontend"
	ServiceBackend  = "backend"
)

// NotFoundError reports a project path that does not exist on disk.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return "path does not exist: " + e.Path }

// Is lets callers match with errors.Is(err, fs.ErrNotExist).
func (e *NotFoundError) Is(target error) bool { return target == fs.ErrNotExist }

// Project is a read-only snapshot of what a detection pass found. It is
// produced fresh on every call and never cached.
type Project struct {
	HasFrontend  bool    `json:"has_frontend"`
	HasBackend   bool    `json:"has_backend"`
	FrontendPort *uint16 `json:"frontend_port,omitempty"`
	BackendPort  *uint16 `json:"backend_port,omitempty"`
	ProjectName  string  `json:"project_name"`
}

// Inspect examines projectPath for recognizable frontend/backend
// sub-structures. Ports are only probed for the sides that are present.
func Inspect(projectPath string) (Project, error) {
	if _, err := os.Stat(projectPath); err != nil {
		return Project{}, &NotFoundError{Path: projectPath}
	}

	frontendDir := filepath.Join(projectPath, ServiceFrontend)
	backendDir := filepath.Join(projectPath, ServiceBackend)

	p := Project{
		HasFrontend: fileExists(filepath.Join(frontendDir, "package.json")),
		HasBackend: fileExists(filepath.Join(backendDir, "requirements.txt")) ||
			fileExists(filepath.Join(backendDir, "main.py")),
		ProjectName: projectName(projectPath),
	}

	if p.HasFrontend {
		port := Port(frontendDir, ServiceFrontend)
		p.FrontendPort = &port
	}
	if p.HasBackend {
		port := Port(backendDir, ServiceBackend)
		p.BackendPort = &port
	}
	return p, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// projectName derives the display name from the final path element.
// Root-like paths have no nameable component.
func projectName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "Unknown"
	}
	return base
}
