package main

import (
	"os"

	"greetd/internal/logging"
)

func main() {
	// Startup failures are reported on stderr and exit non-zero; the
	// deployment pipeline relies on a prompt failure, never a retry loop.
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
