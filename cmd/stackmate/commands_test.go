package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkerrs/stackmate"
)

func testCommand() command {
	return command{newManager: func(cfg stackmate.Config) *stackmate.Manager {
		return stackmate.NewWithConfig(cfg)
	}}
}

func TestCreateThenDetectLocally(t *testing.T) {
	c := testCommand()
	root := filepath.Join(t.TempDir(), "shop")

	if err := c.Create(CreateFlags{Path: root, Name: "shop", FrontendPort: 5199, BackendPort: 8099}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Detect(DetectFlags{Path: root}); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	p, err := stackmate.New().DetectProject(root)
	if err != nil {
		t.Fatalf("DetectProject: %v", err)
	}
	if !p.HasFrontend || !p.HasBackend {
		t.Fatalf("scaffold should be detectable: %+v", p)
	}
	if p.FrontendPort == nil || *p.FrontendPort != 5199 {
		t.Fatalf("frontend port = %v, want 5199", p.FrontendPort)
	}
}

func TestDetectMissingPathFails(t *testing.T) {
	c := testCommand()
	err := c.Detect(DetectFlags{Path: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatalf("Detect on missing path must fail")
	}
}

func TestStartRequiresDaemon(t *testing.T) {
	c := testCommand()
	err := c.Start(StartFlags{
		Service:    "frontend",
		Path:       "/tmp",
		APIUrl:     "http://127.0.0.1:1/api",
		APITimeout: 200 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "daemon not reachable") {
		t.Fatalf("expected daemon-not-reachable error, got %v", err)
	}
}

func TestStartStopAgainstDaemon(t *testing.T) {
	srv := fakeDaemon(t)
	c := testCommand()

	if err := c.Start(StartFlags{Service: "frontend", Path: "/home/me/shop", APIUrl: srv.URL + "/api", APITimeout: time.Second}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(StopFlags{Service: "frontend", Path: "/home/me/shop", APIUrl: srv.URL + "/api", APITimeout: time.Second}); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.Status(StatusFlags{APIUrl: srv.URL + "/api", APITimeout: time.Second}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if err := c.History(HistoryFlags{Limit: 10, APIUrl: srv.URL + "/api", APITimeout: time.Second}); err != nil {
		t.Fatalf("History: %v", err)
	}
}

func TestCreateLoadsConfigError(t *testing.T) {
	c := testCommand()
	err := c.Create(CreateFlags{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Path:       filepath.Join(t.TempDir(), "app"),
		Name:       "app",
	})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config load error, got %v", err)
	}
}
