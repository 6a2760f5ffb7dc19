// Package scaffold writes the two-tier project skeleton that the detector
// recognizes: a Vite frontend manifest and a FastAPI backend stub, each
// carrying its configured dev-server port.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Params describes the project to generate.
type Params struct {
	Path         string
	Name         string
	FrontendPort uint16
	BackendPort  uint16
}

const packageJSON = `{
  "name": "%s-frontend",
  "private": true,
  "version": "0.1.0",
  "type": "module",
  "scripts": {
    "dev": "vite --host 127.0.0.1 --port %d",
    "build": "vite build",
    "preview": "vite preview"
  }
}
`

const viteConfig = `import { defineConfig } from "vite";

export default defineConfig({
  server: {
    host: "127.0.0.1",
    port: %d,
    strictPort: true,
  },
});
`

const frontendEnv = "VITE_API_URL=http://127.0.0.1:%d\n"

const backendEnv = "DATABASE_URL=sqlite:///./app.db\nBACKEND_PORT=%d\n"

const requirementsTxt = `fastapi>=0.115.0
uvicorn[standard]>=0.34.0
python-dotenv>=1.0.0
`

const mainPy = `from fastapi import FastAPI
from dotenv import load_dotenv

load_dotenv()

app = FastAPI(title="%s")


@app.get("/health")
async def health():
    return {"status": "healthy"}
`

// Create writes the skeleton under p.Path and returns a confirmation
// message. Existing files are overwritten; partially written trees are
// left in place for the caller to inspect.
func Create(p Params) (string, error) {
	frontend := filepath.Join(p.Path, "frontend")
	backend := filepath.Join(p.Path, "backend")
	for _, dir := range []string{frontend, backend} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", err
		}
	}

	slug := strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(frontend, "package.json"), fmt.Sprintf(packageJSON, slug, p.FrontendPort)},
		{filepath.Join(frontend, "vite.config.ts"), fmt.Sprintf(viteConfig, p.FrontendPort)},
		{filepath.Join(frontend, ".env"), fmt.Sprintf(frontendEnv, p.BackendPort)},
		{filepath.Join(frontend, ".env.example"), fmt.Sprintf(frontendEnv, p.BackendPort)},
		{filepath.Join(backend, "requirements.txt"), requirementsTxt},
		{filepath.Join(backend, "main.py"), fmt.Sprintf(mainPy, p.Name)},
		{filepath.Join(backend, ".env"), fmt.Sprintf(backendEnv, p.BackendPort)},
		{filepath.Join(backend, ".env.example"), fmt.Sprintf(backendEnv, p.BackendPort)},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0o600); err != nil {
			return "", err
		}
	}
	return "Project created at " + p.Path, nil
}
