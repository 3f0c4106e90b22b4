package main

import (
	"context"
	"os"
	"time"

	"catalog_srv/internal/config"
	"catalog_srv/internal/database"
	sqlinfra "catalog_srv/internal/infrastructure/sql"
	"catalog_srv/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := sqlinfra.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer conn.Close()

	db, err := database.NewDatabase(database.Config{Driver: cfg.DB.Driver, Debug: true}, conn.DB)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm session")
	}

	logger.Info("Running database migrations...")
	if err := database.AutoMigrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	logger.Info("Migrations completed successfully")
}
