package repository

import (
	"context"
	"errors"
	"io"
	"time"

	"catalog_srv/internal/domain/query"
	"catalog_srv/internal/models"
)

// ErrExportNotFound is returned when no export has the requested id.
var ErrExportNotFound = errors.New("export not found")

// TableRenderer renders a result table into a file format.
type TableRenderer interface {
	Render(sheet string, table *query.Table) ([]byte, error)
	Format() string
	MimeType() string
}

// FileStorage keeps rendered export files (local directory or S3).
type FileStorage interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]FileInfo, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

// FileInfo информация о файле
type FileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ExportRepository persists export metadata.
type ExportRepository interface {
	Create(ctx context.Context, export *models.Export) error
	GetByID(ctx context.Context, id uint) (*models.Export, error)
	List(ctx context.Context, params ListParams) ([]models.Export, int64, error)
	UpdateStatus(ctx context.Context, id uint, update StatusUpdate) error
	Delete(ctx context.Context, id uint) error
}

// ListParams параметры для получения списка выгрузок
type ListParams struct {
	Page      int                  `json:"page"`
	PageSize  int                  `json:"page_size"`
	Operation string               `json:"operation,omitempty"`
	Status    *models.ExportStatus `json:"status,omitempty"`
}

// StatusUpdate describes a status transition of an export.
type StatusUpdate struct {
	Status   models.ExportStatus
	FileKey  string
	RowCount int
	Error    string
}
