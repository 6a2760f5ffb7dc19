// Package config loads the stackmate TOML configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mkerrs/stackmate/internal/detect"
	"github.com/mkerrs/stackmate/internal/logger"
)

// ServiceConfig holds per-service defaults used when a start request or
// the scaffolder does not specify its own values.
type ServiceConfig struct {
	Port    uint16 `toml:"port" mapstructure:"port"`
	Command string `toml:"command" mapstructure:"command"`
}

// HistoryConfig selects where lifecycle events are recorded. An empty DSN
// disables recording.
type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// Config is the top-level TOML structure.
type Config struct {
	Listen   string        `toml:"listen" mapstructure:"listen"`
	BasePath string        `toml:"base_path" mapstructure:"base_path"`
	LogLevel string        `toml:"log_level" mapstructure:"log_level"`
	Log      logger.Config `toml:"log" mapstructure:"log"`
	History  HistoryConfig `toml:"history" mapstructure:"history"`
	Frontend ServiceConfig `toml:"frontend" mapstructure:"frontend"`
	Backend  ServiceConfig `toml:"backend" mapstructure:"backend"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:8095",
		BasePath: "/api",
		LogLevel: "info",
		Frontend: ServiceConfig{
			Port:    detect.DefaultFrontendPort,
			Command: "npm run dev",
		},
		Backend: ServiceConfig{
			Port:    detect.DefaultBackendPort,
			Command: "uvicorn main:app --reload",
		},
	}
}

// Load reads a TOML file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// CommandFor returns the configured default command for a service type,
// empty when the type has none.
func (c Config) CommandFor(service string) string {
	switch service {
	case detect.ServiceFrontend:
		return c.Frontend.Command
	case detect.ServiceBackend:
		return c.Backend.Command
	}
	return ""
}
