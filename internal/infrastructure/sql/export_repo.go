package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog_srv/internal/models"
	"catalog_srv/internal/usecase/repository"

	"gorm.io/gorm"
)

// ExportRepository реализация репозитория выгрузок для GORM
type ExportRepository struct {
	db *gorm.DB
}

// NewExportRepository создает новый GORM репозиторий выгрузок
func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create создает новую запись о выгрузке
func (r *ExportRepository) Create(ctx context.Context, export *models.Export) error {
	return r.db.WithContext(ctx).Create(export).Error
}

// GetByID получает выгрузку по ID
func (r *ExportRepository) GetByID(ctx context.Context, id uint) (*models.Export, error) {
	var export models.Export
	err := r.db.WithContext(ctx).First(&export, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", repository.ErrExportNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &export, nil
}

// List получает список выгрузок с фильтрацией и пагинацией, новые первыми
func (r *ExportRepository) List(ctx context.Context, params repository.ListParams) ([]models.Export, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Export{})

	if params.Operation != "" {
		q = q.Where("operation = ?", params.Operation)
	}
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PageSize
	var exports []models.Export
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(params.PageSize).
		Find(&exports).Error
	return exports, total, err
}

// UpdateStatus переводит выгрузку в новый статус. Завершенные выгрузки не
// меняются.
func (r *ExportRepository) UpdateStatus(ctx context.Context, id uint, update repository.StatusUpdate) error {
	export, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !export.Status.CanTransitionTo(update.Status) {
		return fmt.Errorf("невозможен переход со статуса %s на %s", export.Status, update.Status)
	}

	updates := map[string]interface{}{
		"status":     update.Status,
		"row_count":  update.RowCount,
		"error":      update.Error,
		"updated_at": time.Now().UTC(),
	}
	if update.FileKey != "" {
		updates["file_key"] = update.FileKey
	}
	if update.Status == models.StatusCompleted {
		now := time.Now().UTC()
		updates["generated_at"] = &now
	}

	return r.db.WithContext(ctx).Model(&models.Export{}).Where("id = ?", id).Updates(updates).Error
}

// Delete удаляет выгрузку
func (r *ExportRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Export{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", repository.ErrExportNotFound, id)
	}
	return nil
}
