package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	n, err := database.AutoMigrate(db, logger)
	if err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
}
