package main

import (
	"context"
	"log"
	"os"

	"todoapp/internal/app"
	"todoapp/internal/config"
	"todoapp/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	application, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error(context.Background(), "server exited with error", "error", err)
		os.Exit(1)
	}
}
