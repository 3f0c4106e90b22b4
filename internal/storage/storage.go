package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"catalog_srv/internal/config"
	"catalog_srv/internal/usecase/repository"

	"github.com/sirupsen/logrus"
)

const (
	// Типы хранилищ
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"

	// Время жизни pre-signed URL по умолчанию
	DefaultPresignExpiration = time.Hour
)

// Storage интерфейс для работы с файлами выгрузок
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// GetPresignedURL возвращает временную ссылку на файл
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)

	List(ctx context.Context, prefix string) ([]FileInfo, error)
	ValidateKey(key string) error
}

// FileInfo информация о файле
type FileInfo = repository.FileInfo

// NewStorageFromConfig создает хранилище по конфигурации и оборачивает его
// в middleware валидации и логирования
func NewStorageFromConfig(cfg config.Config, logger *logrus.Logger) (Storage, error) {
	var (
		st  Storage
		err error
	)

	switch cfg.Storage.Type {
	case StorageTypeS3:
		st, err = NewS3Storage(context.Background(), S3Config{
			Region:            cfg.Storage.S3.Region,
			Bucket:            cfg.Storage.S3.Bucket,
			Endpoint:          cfg.Storage.S3.Endpoint,
			AccessKey:         cfg.Storage.S3.AccessKey,
			SecretKey:         cfg.Storage.S3.SecretKey,
			ForcePathStyle:    true,
			PresignExpiration: DefaultPresignExpiration,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания S3 хранилища: %w", err)
		}
	case StorageTypeLocal:
		st, err = NewLocalStorage(LocalConfig{
			BasePath:    cfg.Storage.BasePath,
			Permissions: 0755,
			CreateDirs:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания локального хранилища: %w", err)
		}
	default:
		return nil, fmt.Errorf("неподдерживаемый тип хранилища: %s", cfg.Storage.Type)
	}

	if logger != nil {
		st = NewLoggingMiddleware(st, logger)
	}
	return NewValidationMiddleware(st), nil
}
