package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkerrs/stackmate"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command and wires the subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	serveFlags := &ServeFlags{}
	startFlags := &StartFlags{}
	stopFlags := &StopFlags{}
	detectFlags := &DetectFlags{}
	createFlags := &CreateFlags{}
	statusFlags := &StatusFlags{}
	historyFlags := &HistoryFlags{}

	cmds := command{newManager: func(cfg stackmate.Config) *stackmate.Manager {
		return stackmate.NewWithConfig(cfg)
	}}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServeCommand(cmds, globalFlags, serveFlags),
		createStartCommand(cmds, globalFlags, startFlags),
		createStopCommand(cmds, globalFlags, stopFlags),
		createDetectCommand(cmds, globalFlags, detectFlags),
		createCreateCommand(cmds, globalFlags, createFlags),
		createStatusCommand(cmds, globalFlags, statusFlags),
		createHistoryCommand(cmds, globalFlags, historyFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "stackmate",
		Short: "Local dev-environment helper for two-tier projects",
		Long: `Stackmate scaffolds, inspects, and runs frontend/backend development
servers for local projects.

Examples:
  stackmate create --path=/home/me/shop --name=shop
  stackmate detect --path=/home/me/shop
  stackmate start --service=frontend --path=/home/me/shop
  stackmate serve                     # Start the HTTP daemon for GUI clients
  stackmate status --api-url=http://127.0.0.1:8095/api`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

func createServeCommand(c command, g *GlobalFlags, f *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon exposing the command API",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Serve(*f)
		},
	}
	cmd.Flags().StringVar(&f.Listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func createStartCommand(c command, g *GlobalFlags, f *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a dev server for a project",
		Long: `Start the frontend or backend dev server of a project.

Examples:
  stackmate start --service=frontend --path=/home/me/shop
  stackmate start --service=backend --path=/home/me/shop --command="uvicorn main:app --port 8001"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Start(*f)
		},
	}
	cmd.Flags().StringVar(&f.Service, "service", "", "service type: frontend or backend (required)")
	cmd.Flags().StringVar(&f.Path, "path", "", "absolute project path (required)")
	cmd.Flags().StringVar(&f.Command, "command", "", "shell command to run (defaults per service type)")
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	markRequired(cmd, "service", "path")
	return cmd
}

func createStopCommand(c command, g *GlobalFlags, f *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a tracked dev server",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Stop(*f)
		},
	}
	cmd.Flags().StringVar(&f.Service, "service", "", "service type: frontend or backend (required)")
	cmd.Flags().StringVar(&f.Path, "path", "", "absolute project path (required)")
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	markRequired(cmd, "service", "path")
	return cmd
}

func createDetectCommand(c command, g *GlobalFlags, f *DetectFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Inspect a project directory for frontend/backend structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Detect(*f)
		},
	}
	cmd.Flags().StringVar(&f.Path, "path", "", "absolute project path (required)")
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	markRequired(cmd, "path")
	return cmd
}

func createCreateCommand(c command, g *GlobalFlags, f *CreateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Scaffold a two-tier project skeleton",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Create(*f)
		},
	}
	cmd.Flags().StringVar(&f.Path, "path", "", "directory to create the project in (required)")
	cmd.Flags().StringVar(&f.Name, "name", "", "project display name (required)")
	cmd.Flags().Uint16Var(&f.FrontendPort, "frontend-port", 0, "frontend dev-server port (0 = configured default)")
	cmd.Flags().Uint16Var(&f.BackendPort, "backend-port", 0, "backend dev-server port (0 = configured default)")
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	markRequired(cmd, "path", "name")
	return cmd
}

func createStatusCommand(c command, g *GlobalFlags, f *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List running dev-server processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.Status(*f)
		},
	}
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	return cmd
}

func createHistoryCommand(c command, g *GlobalFlags, f *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.ConfigPath = g.ConfigPath
			return c.History(*f)
		},
	}
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "maximum number of events")
	addAPIFlags(cmd, &f.APIUrl, &f.APITimeout)
	return cmd
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		if err := cmd.MarkFlagRequired(n); err != nil {
			panic(err)
		}
	}
}
