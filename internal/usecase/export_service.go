package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"catalog_srv/internal/domain/catalog"
	"catalog_srv/internal/domain/query"
	"catalog_srv/internal/models"
	"catalog_srv/internal/usecase/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoResult is returned by exports whose query did not pass
	// parameter validation.
	ErrNoResult          = errors.New("no result")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrExportNotReady    = errors.New("export is not ready")
)

// QueryRunner runs a named query request.
type QueryRunner interface {
	Execute(ctx context.Context, req query.Request) (*query.Table, error)
}

// ExportList результат получения списка выгрузок с пагинацией
type ExportList struct {
	Exports    []models.Export `json:"exports"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ExportService выполняет запрос, сохраняет результат в файл и ведет учет выгрузок.
type ExportService struct {
	Queries       QueryRunner
	Exports       repository.ExportRepository
	Storage       repository.FileStorage
	Renderers     map[string]repository.TableRenderer
	DefaultFormat string
	LinkExpiry    time.Duration
	Logger        *logrus.Logger
}

// NewExportService собирает сервис из зависимостей.
func NewExportService(
	queries QueryRunner,
	exports repository.ExportRepository,
	storage repository.FileStorage,
	defaultFormat string,
	logger *logrus.Logger,
	renderers ...repository.TableRenderer,
) *ExportService {
	byFormat := make(map[string]repository.TableRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &ExportService{
		Queries:       queries,
		Exports:       exports,
		Storage:       storage,
		Renderers:     byFormat,
		DefaultFormat: defaultFormat,
		LinkExpiry:    time.Hour,
		Logger:        logger,
	}
}

// Export выполняет запрос и сохраняет его результат в файл формата format.
// Запись о выгрузке создается до выполнения запроса и остается в статусе
// failed, если запрос или сохранение завершились ошибкой.
func (s *ExportService) Export(ctx context.Context, req query.Request, format string) (*models.Export, error) {
	if format == "" {
		format = s.DefaultFormat
	}
	renderer, ok := s.Renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if _, ok := catalog.Lookup(req.Operation); !ok {
		return nil, ErrUnknownOperation
	}

	export := &models.Export{
		RequestID:  uuid.NewString(),
		Operation:  req.Operation,
		Parameters: paramsJSON(req.Params),
		Format:     format,
		Status:     models.StatusPending,
	}
	if err := s.Exports.Create(ctx, export); err != nil {
		return nil, fmt.Errorf("ошибка создания выгрузки: %w", err)
	}

	logger := s.Logger.WithFields(logrus.Fields{
		"export_id":  export.ID,
		"request_id": export.RequestID,
		"operation":  export.Operation,
		"format":     format,
	})
	logger.Info("Выгрузка запущена")

	table, err := s.Queries.Execute(ctx, req)
	if err != nil {
		return s.fail(ctx, logger, export, err)
	}
	if table == nil {
		return s.fail(ctx, logger, export, ErrNoResult)
	}

	data, err := renderer.Render(req.Operation, table)
	if err != nil {
		return s.fail(ctx, logger, export, fmt.Errorf("ошибка формирования файла: %w", err))
	}

	key := fileKey(export)
	if err := s.Storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return s.fail(ctx, logger, export, fmt.Errorf("ошибка сохранения файла: %w", err))
	}

	update := repository.StatusUpdate{
		Status:   models.StatusCompleted,
		FileKey:  key,
		RowCount: table.Len(),
	}
	if err := s.Exports.UpdateStatus(ctx, export.ID, update); err != nil {
		s.removeFile(ctx, logger, key)
		return s.fail(ctx, logger, export, fmt.Errorf("ошибка обновления статуса выгрузки: %w", err))
	}

	logger.WithFields(logrus.Fields{
		"file_key": key,
		"rows":     table.Len(),
	}).Info("Выгрузка завершена")
	return s.Exports.GetByID(ctx, export.ID)
}

// Get возвращает выгрузку по ID
func (s *ExportService) Get(ctx context.Context, id uint) (*models.Export, error) {
	return s.Exports.GetByID(ctx, id)
}

// List возвращает список выгрузок с пагинацией
func (s *ExportService) List(ctx context.Context, params repository.ListParams) (*ExportList, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	exports, total, err := s.Exports.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка выгрузок: %w", err)
	}

	return &ExportList{
		Exports:    exports,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: int((total + int64(params.PageSize) - 1) / int64(params.PageSize)),
	}, nil
}

// Open возвращает содержимое файла выгрузки, имя файла и MIME тип
func (s *ExportService) Open(ctx context.Context, id uint) (io.ReadCloser, string, string, error) {
	export, err := s.Exports.GetByID(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	if err := s.checkFile(ctx, export); err != nil {
		return nil, "", "", err
	}

	rc, err := s.Storage.Get(ctx, export.FileKey)
	if err != nil {
		return nil, "", "", fmt.Errorf("ошибка получения файла: %w", err)
	}

	mime := "application/octet-stream"
	if r, ok := s.Renderers[export.Format]; ok {
		mime = r.MimeType()
	}
	filename := fmt.Sprintf("%s_%d.%s", export.Operation, export.ID, export.Extension())
	return rc, filename, mime, nil
}

// Link возвращает временную ссылку на файл выгрузки
func (s *ExportService) Link(ctx context.Context, id uint) (string, error) {
	export, err := s.Exports.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.checkFile(ctx, export); err != nil {
		return "", err
	}
	return s.Storage.GetPresignedURL(ctx, export.FileKey, s.LinkExpiry)
}

// Delete удаляет выгрузку и все файлы под ее префиксом. Ошибка удаления
// файлов не прерывает удаление записи.
func (s *ExportService) Delete(ctx context.Context, id uint) error {
	export, err := s.Exports.GetByID(ctx, id)
	if err != nil {
		return err
	}

	logger := s.Logger.WithField("export_id", id)
	keys := make(map[string]struct{})
	if export.HasFile() {
		keys[export.FileKey] = struct{}{}
	}
	files, err := s.Storage.List(ctx, exportPrefix(export.ID))
	if err != nil {
		logger.WithError(err).Error("Ошибка получения списка файлов выгрузки")
	}
	for _, f := range files {
		keys[f.Key] = struct{}{}
	}
	for key := range keys {
		s.removeFile(ctx, logger, key)
	}

	if err := s.Exports.Delete(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления выгрузки: %w", err)
	}
	logger.Info("Выгрузка удалена")
	return nil
}

func (s *ExportService) fail(ctx context.Context, logger *logrus.Entry, export *models.Export, cause error) (*models.Export, error) {
	logger.WithError(cause).Error("Ошибка выгрузки")
	update := repository.StatusUpdate{Status: models.StatusFailed, Error: cause.Error()}
	if err := s.Exports.UpdateStatus(ctx, export.ID, update); err != nil {
		logger.WithError(err).Error("Ошибка обновления статуса на failed")
	}
	export.Status = models.StatusFailed
	export.Error = cause.Error()
	return export, cause
}

// checkFile reports ErrExportNotReady unless the export is completed and
// its file is still in storage.
func (s *ExportService) checkFile(ctx context.Context, export *models.Export) error {
	if !export.IsCompleted() || !export.HasFile() {
		return ErrExportNotReady
	}
	ok, err := s.Storage.Exists(ctx, export.FileKey)
	if err != nil {
		return fmt.Errorf("ошибка проверки файла: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: файл %s отсутствует в хранилище", ErrExportNotReady, export.FileKey)
	}
	return nil
}

func (s *ExportService) removeFile(ctx context.Context, logger *logrus.Entry, key string) {
	if err := s.Storage.Delete(ctx, key); err != nil {
		logger.WithError(err).WithField("file_key", key).Error("Ошибка удаления файла выгрузки")
	}
}

func exportPrefix(id uint) string {
	return fmt.Sprintf("exports/%d/", id)
}

func fileKey(export *models.Export) string {
	return fmt.Sprintf("%s%s_%s.%s",
		exportPrefix(export.ID),
		export.Operation,
		time.Now().UTC().Format("20060102150405"),
		export.Extension())
}

func paramsJSON(params query.Params) models.JSON {
	if len(params) == 0 {
		return nil
	}
	out := make(models.JSON, len(params))
	for name, v := range params {
		out[name] = v.Interface()
	}
	return out
}
