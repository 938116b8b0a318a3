package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acecpas/workbench/internal/api"
	"github.com/acecpas/workbench/internal/api/service"
	"github.com/acecpas/workbench/internal/config"
	"github.com/acecpas/workbench/internal/data/mongo"
	"github.com/acecpas/workbench/internal/data/postgres"
	"github.com/acecpas/workbench/internal/logger"
	"github.com/acecpas/workbench/internal/platform/messaging/producers"
	"github.com/acecpas/workbench/internal/platform/persistence"
	"github.com/acecpas/workbench/internal/platform/storage"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize object storage for portal attachments
	objectStore, err := storage.NewGCSStore(appCtx, &cfg.Storage)
	if err != nil {
		log.Error("Failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for portal invite events
	inviteProducer, err := producers.NewPortalInviteProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize portal invite Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	mappingRepo := postgres.NewMappingRepository(log, postgresDB)
	clientAccountRepo := postgres.NewClientAccountRepository(log, postgresDB)
	masterAccountRepo := postgres.NewMasterAccountRepository(log, postgresDB)
	openItemRepo := postgres.NewOpenItemRepository(log, postgresDB)
	fileRecordRepo := postgres.NewFileRecordRepository(log, postgresDB)
	magicLinkRepo := postgres.NewMagicLinkRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize the bulk approval worker pool
	approver, err := service.NewBulkApprover(cfg.WorkerPool, log)
	if err != nil {
		log.Error("Failed to initialize bulk approval worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize services
	mappingService := service.NewMappingService(log, mappingRepo, clientAccountRepo, masterAccountRepo, auditRepo, approver)
	openItemService := service.NewOpenItemService(log, openItemRepo, fileRecordRepo)
	magicLinkService := service.NewMagicLinkService(log, magicLinkRepo, openItemRepo, inviteProducer, &cfg.Portal)
	portalService := service.NewPortalService(log, magicLinkRepo, openItemRepo, fileRecordRepo, objectStore, &cfg.Portal)

	// Initialize REST server
	server := api.NewServer(log, cfg, mappingService, openItemService, magicLinkService, portalService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new work arrives
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the bulk approval worker pool
	approver.Shutdown()

	if err = inviteProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = objectStore.Close(); err != nil {
		log.Error("Error closing object storage client", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
