package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greetd/internal/api"
	"greetd/internal/config"
	"greetd/internal/logging"

	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveHost     string
	serveGreeting string
	serveLogFmt   string
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP responder",
	Long: `Start the greetd HTTP responder. The listener binds host:port and
serves the static route table until the process receives SIGINT or SIGTERM,
at which point in-flight requests are drained and the process exits 0.

Each flag falls back to an environment variable (PORT, GREETD_HOST,
GREETD_GREETING, GREETD_LOG_FORMAT, GREETD_LOG_LEVEL), then to the config
file, then to the built-in default.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().StringVar(&serveGreeting, "greeting", "", "Greeting body served for GET /")
	serveCmd.Flags().StringVar(&serveLogFmt, "log-format", "", "Log format: human or json")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: debug, info, warn, or error")
}

// applyServeFlags overlays flags the user actually set onto the config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if serveGreeting != "" {
		cfg.Greeting = serveGreeting
	}
	if serveLogFmt != "" {
		cfg.Logging.Format = serveLogFmt
	}
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})

	server, err := api.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	// Bind before serving so an occupied port fails the process now.
	if err := server.Listen(); err != nil {
		return err
	}
	fmt.Printf("greetd listening on http://%s\n", server.Addr())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		logger.Info("Server stopped gracefully", nil)
	}

	return nil
}
