package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alext/moneyrobot/internal/api"
	"github.com/alext/moneyrobot/internal/api/handlers"
	"github.com/alext/moneyrobot/internal/warehouse"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/database"
	"github.com/alext/moneyrobot/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the status API server",
	Long: `Starts the read-only status API.

Endpoints:
  GET  /health               - Process and warehouse health
  GET  /api/tables?prefix=X  - Warehouse tables under a prefix
  GET  /api/jobs             - Scheduled job statistics

Example:
  go run ./cmd/moneyrobot api
  go run ./cmd/moneyrobot api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from API_PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.APIPort = apiPort
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to warehouse: %w", err)
	}
	defer db.Close()

	log.Info("Connected to warehouse")

	loader := warehouse.NewLoader(db, log)
	statusHandler := handlers.NewStatusHandler(db, loader, nil, log)
	router := api.NewRouter(statusHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.APIPort)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
