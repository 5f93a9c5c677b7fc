package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/app"
	"bookmarket-api/internal/config"
	"bookmarket-api/internal/pkg/telemetry"

	"github.com/gofiber/fiber/v2"

	_ "bookmarket-api/docs" // Swagger docs
)

// @title Bookmarket API
// @version 1.0
// @description Library loan backend: patron and librarian sessions, loans and catalog

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	shutdownTelemetry, err := telemetry.Setup(context.Background(), telemetry.Options{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure: cfg.Telemetry.Insecure,
		Version:  "1.0.0",
	})
	if err != nil {
		log.Fatalf("❌ Failed to set up telemetry: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	svc, err := app.NewServices(cfg, db)
	if err != nil {
		log.Fatalf("❌ Failed to build services: %v", err)
	}

	// Seed bootstrap librarian
	if err := config.NewSeeder(svc.Auth, cfg.Bootstrap).Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed librarian: %v", err)
	}

	// Overdue scanner (daily by default)
	if err := svc.Overdue.Start(cfg.Loans.OverdueSchedule); err != nil {
		log.Fatalf("❌ Failed to start overdue scanner: %v", err)
	}

	server := app.NewServer(cfg, svc)

	// Graceful shutdown
	done := make(chan struct{})
	go gracefulShutdown(server, done)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := server.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	<-done

	svc.Overdue.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTelemetry(ctx); err != nil {
		log.Printf("⚠️ Telemetry shutdown error: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(server *fiber.App, done chan<- struct{}) {
	defer close(done)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
