package database

import (
	"database/sql"
	"fmt"

	"catalog_srv/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the database configuration
type Config struct {
	Driver string
	Debug  bool
}

// NewDatabase wraps an already opened connection with gorm. The connection
// is shared with the query executor and is owned by the caller.
func NewDatabase(cfg Config, conn *sql.DB) (*gorm.DB, error) {
	logLevel := logger.Error
	if cfg.Debug {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: conn})
	case "sqlite", "sqlite3":
		dialector = &sqlite.Dialector{Conn: conn}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate creates the tables owned by this service. The rental catalog
// schema itself is managed outside of it.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Export{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
