package main

import (
	"fmt"

	"greetd/internal/api"
	"greetd/internal/logging"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the effective route table",
	Long: `Resolve configuration and route declarations exactly as serve would,
then print the effective route table and exit. Fails with the same validation
errors as serve, so a pipeline can lint a route file before deploying it.`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ErrorLevel,
	})

	server, err := api.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("%-7s %-24s %s\n", "METHOD", "PATH", "STATUS")
	for _, route := range server.Routes() {
		fmt.Printf("%-7s %-24s %d\n", route.Method, route.Path, route.Status)
	}
	fmt.Printf("%d route(s), listening address %s\n", server.RouteCount(), cfg.Addr())

	return nil
}
