// Package stackmate manages local two-tier (frontend/backend) development
// projects: scaffolding a skeleton, detecting its dev-server ports, and
// starting/stopping the dev-server processes.
package stackmate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkerrs/stackmate/internal/config"
	"github.com/mkerrs/stackmate/internal/detect"
	"github.com/mkerrs/stackmate/internal/history"
	"github.com/mkerrs/stackmate/internal/metrics"
	"github.com/mkerrs/stackmate/internal/registry"
	"github.com/mkerrs/stackmate/internal/scaffold"
	"github.com/mkerrs/stackmate/internal/server"
	"github.com/mkerrs/stackmate/internal/service"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type DetectedProject = detect.Project

type ServiceInfo = registry.Info

type HistoryEvent = history.Event

type HistorySink = history.Sink

// Service labels understood by the default configuration.
const (
	ServiceFrontend = detect.ServiceFrontend
	ServiceBackend  = detect.ServiceBackend
)

// Manager is a thin facade over the internal controller. It provides a
// stable public API for embedding.
type Manager struct {
	ctrl *service.Controller
	cfg  config.Config
	hist server.HistoryReader
}

// New creates a Manager with default configuration.
func New() *Manager { return NewWithConfig(config.Default()) }

// NewWithConfig creates a Manager using cfg for child-process log capture
// and per-service defaults.
func NewWithConfig(cfg config.Config) *Manager {
	reg := registry.New()
	return &Manager{
		ctrl: service.NewController(reg, service.WithChildLog(cfg.Log)),
		cfg:  cfg,
	}
}

// SetHistorySinks configures lifecycle event sinks. Passing no sinks
// clears the list. A sink that also supports queries becomes visible on
// the HTTP /history endpoint.
func (m *Manager) SetHistorySinks(sinks ...history.Sink) {
	m.ctrl.SetSinks(sinks...)
	m.hist = nil
	for _, s := range sinks {
		if hr, ok := s.(server.HistoryReader); ok {
			m.hist = hr
			break
		}
	}
}

// StartService spawns the shell command for a service under projectPath
// and returns a human-readable confirmation. An empty command falls back
// to the configured default for the service type; a service type with no
// default is rejected rather than spawning an empty shell.
func (m *Manager) StartService(ctx context.Context, serviceType, projectPath, command string) (string, error) {
	if command == "" {
		command = m.cfg.CommandFor(serviceType)
	}
	if command == "" {
		return "", fmt.Errorf("no command configured for service type %q", serviceType)
	}
	info, err := m.ctrl.Start(ctx, serviceType, projectPath, command)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}

// StopService terminates the tracked process for (projectPath, serviceType).
func (m *Manager) StopService(ctx context.Context, serviceType, projectPath string) (string, error) {
	info, err := m.ctrl.Stop(ctx, serviceType, projectPath)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}

// DetectProject inspects projectPath for frontend/backend structure.
func (m *Manager) DetectProject(projectPath string) (DetectedProject, error) {
	return detect.Inspect(projectPath)
}

// CreateProject scaffolds a two-tier skeleton. Zero ports fall back to
// the configured defaults.
func (m *Manager) CreateProject(projectPath, projectName string, frontendPort, backendPort uint16) (string, error) {
	if frontendPort == 0 {
		frontendPort = m.cfg.Frontend.Port
	}
	if backendPort == 0 {
		backendPort = m.cfg.Backend.Port
	}
	return scaffold.Create(scaffold.Params{
		Path:         projectPath,
		Name:         projectName,
		FrontendPort: frontendPort,
		BackendPort:  backendPort,
	})
}

// Running lists currently tracked dev-server processes.
func (m *Manager) Running() []ServiceInfo { return m.ctrl.Running() }

// LoadConfig reads a TOML configuration file, or returns defaults for an
// empty path.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// NewSQLiteHistory opens a SQLite-backed history sink.
func NewSQLiteHistory(dsn string) (*history.SQLiteSink, error) { return history.NewSQLite(dsn) }

// NewHTTPServer starts an HTTP server exposing the command API using the
// given manager.
func NewHTTPServer(addr string, m *Manager) *http.Server {
	return server.New(addr, server.NewRouter(m.ctrl, m.cfg, m.hist))
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

func RegisterMetricsDefault() error { return metrics.Register(prometheus.DefaultRegisterer) }
