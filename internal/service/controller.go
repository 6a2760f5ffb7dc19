// Package service implements the start/stop operation layer over the
// process registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mkerrs/stackmate/internal/detect"
	"github.com/mkerrs/stackmate/internal/history"
	"github.com/mkerrs/stackmate/internal/logger"
	"github.com/mkerrs/stackmate/internal/metrics"
	"github.com/mkerrs/stackmate/internal/registry"
)

// Controller validates preconditions, spawns or terminates dev-server
// processes, and mutates the shared registry. It has no background
// machinery: callers invoke it synchronously, possibly concurrently.
type Controller struct {
	reg      *registry.Registry
	launcher Launcher
	childLog logger.Config
	log      *slog.Logger

	mu    sync.RWMutex
	sinks []history.Sink
}

type Option func(*Controller)

// WithLauncher overrides the platform launcher (used by tests).
func WithLauncher(l Launcher) Option { return func(c *Controller) { c.launcher = l } }

// WithChildLog configures where captured dev-server output is written.
func WithChildLog(cfg logger.Config) Option { return func(c *Controller) { c.childLog = cfg } }

// WithHistorySinks configures lifecycle event sinks.
func WithHistorySinks(sinks ...history.Sink) Option {
	return func(c *Controller) { c.sinks = append([]history.Sink(nil), sinks...) }
}

// SetSinks replaces the lifecycle event sinks. Safe to call while the
// controller is in use.
func (c *Controller) SetSinks(sinks ...history.Sink) {
	c.mu.Lock()
	c.sinks = append([]history.Sink(nil), sinks...)
	c.mu.Unlock()
}

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

func NewController(reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{reg: reg, launcher: NewLauncher(), log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StartedInfo reports a successful start.
type StartedInfo struct {
	Service string `json:"service"`
	PID     int    `json:"pid"`
}

func (i StartedInfo) String() string {
	return fmt.Sprintf("%s started with PID %d", i.Service, i.PID)
}

// StoppedInfo reports a successful stop.
type StoppedInfo struct {
	Service string `json:"service"`
}

func (i StoppedInfo) String() string { return i.Service + " stopped" }

// Start spawns command in projectPath and registers the resulting process
// under (projectPath, service). The absence check and the placeholder
// insert happen under one registry lock acquisition, so concurrent starts
// for the same key cannot both spawn; the spawn itself runs outside the
// lock.
func (c *Controller) Start(ctx context.Context, service, projectPath, command string) (StartedInfo, error) {
	if _, err := os.Stat(projectPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StartedInfo{}, &detect.NotFoundError{Path: projectPath}
		}
		return StartedInfo{}, fmt.Errorf("stat %s: %w", projectPath, err)
	}

	key := registry.Key{ProjectPath: projectPath, Service: service}
	if !c.reg.Reserve(key) {
		return StartedInfo{}, &AlreadyRunningError{Service: service}
	}

	outW, errW, err := c.childLog.Writers(service + "." + filepath.Base(projectPath))
	if err != nil {
		// Capture is optional; run the service without it.
		c.log.Warn("log capture unavailable", "service", service, "error", err)
		outW, errW = nil, nil
	}

	h, err := c.launcher.Spawn(SpawnRequest{Key: key, Command: command, Stdout: outW, Stderr: errW})
	if err != nil {
		c.reg.Release(key)
		closeWriter(outW)
		closeWriter(errW)
		metrics.IncSpawnFailure(service)
		return StartedInfo{}, &SpawnError{Service: service, Err: err}
	}

	c.reg.Commit(key, h)
	metrics.IncStart(service)
	metrics.SetRunning(c.reg.Len())
	c.record(ctx, history.EventStart, h)
	c.log.Info("service started", "service", service, "project", projectPath, "pid", h.PID)
	return StartedInfo{Service: service, PID: h.PID}, nil
}

// Stop removes the registry entry for (projectPath, service) and
// terminates its process. Termination failures are logged, not surfaced:
// once the entry is gone the service counts as stopped regardless of what
// the OS reports.
func (c *Controller) Stop(ctx context.Context, service, projectPath string) (StoppedInfo, error) {
	key := registry.Key{ProjectPath: projectPath, Service: service}
	h := c.reg.Remove(key)
	if h == nil {
		return StoppedInfo{}, &NotRunningError{Service: service}
	}

	if err := c.launcher.Terminate(h); err != nil {
		c.log.Debug("terminate failed", "service", service, "pid", h.PID, "error", err)
	}
	metrics.IncStop(service)
	metrics.SetRunning(c.reg.Len())
	c.record(ctx, history.EventStop, h)
	c.log.Info("service stopped", "service", service, "project", projectPath, "pid", h.PID)
	return StoppedInfo{Service: service}, nil
}

// Running lists the currently tracked processes.
func (c *Controller) Running() []registry.Info { return c.reg.Snapshot() }

func (c *Controller) record(ctx context.Context, typ history.EventType, h *registry.Handle) {
	c.mu.RLock()
	sinks := c.sinks
	c.mu.RUnlock()
	if len(sinks) == 0 {
		return
	}
	e := history.Event{
		Type:        typ,
		Service:     h.Key.Service,
		ProjectPath: h.Key.ProjectPath,
		PID:         h.PID,
		OccurredAt:  time.Now().UTC(),
	}
	for _, s := range sinks {
		if err := s.Send(ctx, e); err != nil {
			c.log.Debug("history sink write failed", "error", err)
		}
	}
}

func closeWriter(w interface{ Close() error }) {
	if w != nil {
		_ = w.Close()
	}
}
