package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gravitas-games/mazenav/internal/config"
	"github.com/gravitas-games/mazenav/internal/logging"
	"github.com/gravitas-games/mazenav/internal/server"
)

func main() {
	// Used until the configured logger exists
	boot := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "mazenav"})
	boot.Info("Starting maze navigation server...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.Fatal("Failed to load configuration", "path", configPath, "error", err)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		boot.Fatal("Failed to configure logging", "error", err)
	}

	logger.Info("Configuration loaded", "path", configPath)
	logger.Info("Server will run", "host", cfg.Server.Host, "port", cfg.Server.Port)

	// Create and initialize server
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Fatal("Server error", "error", err)
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down...", "signal", sig)
	}

	// Graceful shutdown
	if err := srv.Shutdown(); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
