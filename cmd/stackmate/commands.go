package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkerrs/stackmate"
	"github.com/mkerrs/stackmate/internal/logger"
)

type command struct {
	newManager func(stackmate.Config) *stackmate.Manager
}

func loadConfig(path string) (stackmate.Config, error) {
	cfg, err := stackmate.LoadConfig(path)
	if err != nil {
		return stackmate.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Serve runs the HTTP daemon until SIGINT/SIGTERM.
func (c command) Serve(f ServeFlags) error {
	cfg, err := loadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Listen != "" {
		cfg.Listen = f.Listen
	}

	slog.SetDefault(logger.New(cfg.LogLevel, os.Stderr))
	if err := stackmate.RegisterMetricsDefault(); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	mgr := c.newManager(cfg)
	if cfg.History.DSN != "" {
		sink, err := stackmate.NewSQLiteHistory(cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer func() { _ = sink.Close() }()
		mgr.SetHistorySinks(sink)
	}

	srv := stackmate.NewHTTPServer(cfg.Listen, mgr)
	slog.Info("daemon listening", "addr", cfg.Listen, "base", cfg.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Start starts a dev server through the daemon. The process registry
// lives in the daemon, so a one-shot CLI invocation always goes over the
// API (defaulting to the local daemon).
func (c command) Start(f StartFlags) error {
	client, err := daemonClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	msg, err := client.StartService(f.Service, f.Path, f.Command)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// Stop stops a tracked dev server through the daemon.
func (c command) Stop(f StopFlags) error {
	client, err := daemonClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	msg, err := client.StopService(f.Service, f.Path)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// Status lists the daemon's running processes.
func (c command) Status(f StatusFlags) error {
	client, err := daemonClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	result, err := client.Services()
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

// History prints recent lifecycle events from the daemon.
func (c command) History(f HistoryFlags) error {
	client, err := daemonClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	result, err := client.History(f.Limit)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}

// Detect inspects a project. Detection is stateless, so it runs locally
// unless an API URL is given.
func (c command) Detect(f DetectFlags) error {
	if f.APIUrl != "" {
		client := NewAPIClient(f.APIUrl, f.APITimeout)
		result, err := client.DetectProject(f.Path)
		if err != nil {
			return err
		}
		printJSON(result)
		return nil
	}

	cfg, err := loadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	p, err := c.newManager(cfg).DetectProject(f.Path)
	if err != nil {
		return err
	}
	printJSON(p)
	return nil
}

// Create scaffolds a project skeleton, locally unless an API URL is given.
func (c command) Create(f CreateFlags) error {
	if f.APIUrl != "" {
		client := NewAPIClient(f.APIUrl, f.APITimeout)
		msg, err := client.CreateProject(f.Path, f.Name, f.FrontendPort, f.BackendPort)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	}

	cfg, err := loadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	msg, err := c.newManager(cfg).CreateProject(f.Path, f.Name, f.FrontendPort, f.BackendPort)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func daemonClient(apiURL string, timeout time.Duration) (*APIClient, error) {
	client := NewAPIClient(apiURL, timeout)
	if !client.IsReachable() {
		return nil, fmt.Errorf("daemon not reachable at %s - start it first with 'stackmate serve'", client.baseURL)
	}
	return client, nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
