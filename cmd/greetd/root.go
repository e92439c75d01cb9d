package main

import (
	"greetd/internal/config"
	"greetd/internal/version"

	"github.com/spf13/cobra"
)

var (
	// configFlag is the CLI --config flag value
	configFlag string
	// routesFlag is the CLI --routes flag value
	routesFlag string
)

var rootCmd = &cobra.Command{
	Use:   "greetd",
	Short: "greetd - static HTTP responder",
	Long: `greetd is a minimal HTTP responder. It binds a TCP listener on a
configured port, matches inbound requests against a small static route table,
and writes fixed textual responses. Deployment automation restarts the process
from outside; the binary only needs to start cleanly, bind deterministically,
and exit on a termination signal.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("greetd version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Path to greetd.json (default: ./greetd.json if present)")
	rootCmd.PersistentFlags().StringVar(&routesFlag, "routes", "",
		"Path to ROUTES.toml (default: ./ROUTES.toml if present)")
}

// loadEffectiveConfig assembles configuration for a command run.
// Precedence per knob: CLI flag > environment > config file > default.
// Flag overlays are applied by the caller, which knows which flags were set.
func loadEffectiveConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	declared, err := config.LoadDeclaredRoutes(routesFlag)
	if err != nil {
		return nil, err
	}
	cfg.Routes = append(cfg.Routes, declared...)

	return cfg, nil
}
