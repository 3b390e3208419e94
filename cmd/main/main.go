package main

import (
	"context"

	"freelance/notifier/internal/config"
	"freelance/notifier/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting freelance notifier...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Info("Configuration loaded successfully")

	// Initialize container with all dependencies
	app, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// Run the notification loop
	if err := app.Run(context.Background()); err != nil && err != context.Canceled {
		log.Fatalf("Application exited with error: %v", err)
	}

	log.Info("Application finished successfully")
}
