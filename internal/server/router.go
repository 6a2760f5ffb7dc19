// Package server exposes the stackmate operations over a local HTTP API.
// This is the boundary a GUI (or the CLI in remote mode) talks to.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkerrs/stackmate/internal/config"
	"github.com/mkerrs/stackmate/internal/detect"
	"github.com/mkerrs/stackmate/internal/history"
	"github.com/mkerrs/stackmate/internal/metrics"
	"github.com/mkerrs/stackmate/internal/scaffold"
	"github.com/mkerrs/stackmate/internal/service"
)

// HistoryReader is the query side of an event sink, when the configured
// sink supports it.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Event, error)
}

// Router provides the HTTP handlers for managing dev-server processes.
// Endpoints under basePath:
//
//	POST /services/start    body: {service_type, project_path, command}
//	POST /services/stop     body: {service_type, project_path}
//	GET  /services          list running processes
//	GET  /projects/detect   query: path=...
//	POST /projects/create   body: {project_path, project_name, frontend_port, backend_port}
//	GET  /history           query: limit=... (404 when no readable sink)
//
// Plus /healthz and /metrics at the root.
type Router struct {
	ctrl     *service.Controller
	cfg      config.Config
	hist     HistoryReader
	basePath string
}

// NewRouter constructs a Router. hist may be nil.
func NewRouter(ctrl *service.Controller, cfg config.Config, hist HistoryReader) *Router {
	return &Router{ctrl: ctrl, cfg: cfg, hist: hist, basePath: sanitizeBase(cfg.BasePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/healthz", func(c *gin.Context) { writeJSON(c, http.StatusOK, okResp{OK: true}) })
	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	group := g.Group(r.basePath)
	group.POST("/services/start", r.handleStart)
	group.POST("/services/stop", r.handleStop)
	group.GET("/services", r.handleServices)
	group.GET("/projects/detect", r.handleDetect)
	group.POST("/projects/create", r.handleCreate)
	group.GET("/history", r.handleHistory)
	return g
}

// New starts a standalone HTTP server on addr using this router.
func New(addr string, r *Router) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type messageResp struct {
	Message string `json:"message"`
	PID     int    `json:"pid,omitempty"`
}

type startReq struct {
	ServiceType string `json:"service_type"`
	ProjectPath string `json:"project_path"`
	Command     string `json:"command"`
}

type stopReq struct {
	ServiceType string `json:"service_type"`
	ProjectPath string `json:"project_path"`
}

type createReq struct {
	ProjectPath  string `json:"project_path"`
	ProjectName  string `json:"project_name"`
	FrontendPort uint16 `json:"frontend_port"`
	BackendPort  uint16 `json:"backend_port"`
}

func (r *Router) handleStart(c *gin.Context) {
	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isServiceType(req.ServiceType) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid service_type: allowed [A-Za-z0-9_-]"})
		return
	}
	if !isSafeAbsPath(req.ProjectPath) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid project_path: must be absolute path without traversal"})
		return
	}
	command := req.Command
	if command == "" {
		command = r.cfg.CommandFor(req.ServiceType)
	}
	if command == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "command required for service type " + req.ServiceType})
		return
	}
	info, err := r.ctrl.Start(c.Request.Context(), req.ServiceType, req.ProjectPath, command)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, messageResp{Message: info.String(), PID: info.PID})
}

func (r *Router) handleStop(c *gin.Context) {
	var req stopReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isServiceType(req.ServiceType) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid service_type: allowed [A-Za-z0-9_-]"})
		return
	}
	info, err := r.ctrl.Stop(c.Request.Context(), req.ServiceType, req.ProjectPath)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, messageResp{Message: info.String()})
}

func (r *Router) handleServices(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.ctrl.Running())
}

func (r *Router) handleDetect(c *gin.Context) {
	path := c.Query("path")
	if !isSafeAbsPath(path) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "path query param required: absolute path without traversal"})
		return
	}
	p, err := detect.Inspect(path)
	if err != nil {
		writeJSON(c, statusFor(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (r *Router) handleCreate(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if !isSafeAbsPath(req.ProjectPath) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid project_path: must be absolute path without traversal"})
		return
	}
	if req.ProjectName == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "project_name required"})
		return
	}
	if req.FrontendPort == 0 {
		req.FrontendPort = r.cfg.Frontend.Port
	}
	if req.BackendPort == 0 {
		req.BackendPort = r.cfg.Backend.Port
	}
	msg, err := scaffold.Create(scaffold.Params{
		Path:         req.ProjectPath,
		Name:         req.ProjectName,
		FrontendPort: req.FrontendPort,
		BackendPort:  req.BackendPort,
	})
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, messageResp{Message: msg})
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.hist == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "history not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := r.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, events)
}

// statusFor maps controller/detector error kinds onto HTTP status codes.
func statusFor(err error) int {
	var already *service.AlreadyRunningError
	var notRunning *service.NotRunningError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &already):
		return http.StatusConflict
	case errors.As(err, &notRunning):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
