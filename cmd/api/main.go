package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gatherle/notification-service/internal/app"
	"github.com/gatherle/notification-service/internal/config"
)

// @title Gatherle Notification Service API
// @version 1.0
// @description In-app notifications, read state and email delivery logs.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	log.Printf("Connected to %s database, %s transport", cfg.DatabaseDriver, cfg.Transport)

	if err := a.Run(ctx); err != nil {
		a.Close()
		log.Fatalf("Service stopped with error: %v", err)
	}
	log.Println("Service stopped")
}
