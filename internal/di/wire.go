package di

import (
	"context"
	"os"
	"time"

	"catalog_srv/internal/config"
	"catalog_srv/internal/database"
	sqlinfra "catalog_srv/internal/infrastructure/sql"
	"catalog_srv/internal/infrastructure/template"
	"catalog_srv/internal/logging"
	"catalog_srv/internal/server"
	"catalog_srv/internal/storage"
	"catalog_srv/internal/usecase"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// Module собирает зависимости сервиса каталога.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Load,
			newLogger,
			newConnection,
			newGorm,
			storage.NewStorageFromConfig,
			newQueryService,
			newExportService,
			fx.Annotate(server.NewServer, fx.As(new(server.HTTPServer))),
		),
	)
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logging.New(cfg.Logging, os.Stdout)
	logger.WithField("config", cfg.String()).Info("Запуск сервиса каталога")
	return logger
}

// newConnection opens the catalog connection once and closes it when the
// application stops.
func newConnection(lc fx.Lifecycle, cfg config.Config, logger *logrus.Logger) (*sqlinfra.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := sqlinfra.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("Закрытие соединения с базой данных")
			return conn.Close()
		},
	})
	return conn, nil
}

func newGorm(cfg config.Config, conn *sqlinfra.DB) (*gorm.DB, error) {
	return database.NewDatabase(database.Config{Driver: cfg.DB.Driver, Debug: cfg.DB.Debug}, conn.DB)
}

func newQueryService(conn *sqlinfra.DB, logger *logrus.Logger) *usecase.QueryService {
	return usecase.NewQueryService(conn, logger)
}

func newExportService(
	cfg config.Config,
	queries *usecase.QueryService,
	db *gorm.DB,
	st storage.Storage,
	logger *logrus.Logger,
) *usecase.ExportService {
	svc := usecase.NewExportService(
		queries,
		sqlinfra.NewExportRepository(db),
		st,
		cfg.Export.Format,
		logger,
		template.NewXLSX(),
		template.NewCSV(),
	)
	svc.LinkExpiry = cfg.Export.LinkExpiry
	return svc
}
