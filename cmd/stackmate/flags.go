package main

import (
	"time"

	"github.com/spf13/cobra"
)

// Flag structs decouple cobra from the handlers so tests can call the
// handlers directly.

type ServeFlags struct {
	ConfigPath string
	Listen     string
}

type StartFlags struct {
	ConfigPath string
	Service    string
	Path       string
	Command    string
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type StopFlags struct {
	ConfigPath string
	Service    string
	Path       string
	APIUrl     string
	APITimeout time.Duration
}

type DetectFlags struct {
	ConfigPath string
	Path       string
	APIUrl     string
	APITimeout time.Duration
}

type CreateFlags struct {
	ConfigPath   string
	Path         string
	Name         string
	FrontendPort uint16
	BackendPort  uint16
	APIUrl       string
	APITimeout   time.Duration
}

type StatusFlags struct {
	ConfigPath string
	APIUrl     string
	APITimeout time.Duration
}

type HistoryFlags struct {
	ConfigPath string
	Limit      int
	APIUrl     string
	APITimeout time.Duration
}

func addAPIFlags(cmd *cobra.Command, url *string, timeout *time.Duration) {
	cmd.Flags().StringVar(url, "api-url", "", "daemon URL (e.g. http://127.0.0.1:8095/api); empty = run locally")
	cmd.Flags().DurationVar(timeout, "api-timeout", 10*time.Second, "request timeout")
}
