package sql

import (
	"context"
	"fmt"
	"testing"

	"catalog_srv/internal/database"
	"catalog_srv/internal/models"
	"catalog_srv/internal/usecase/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExportRepo(t *testing.T) *ExportRepository {
	t.Helper()
	conn := setupTestDB(t)

	db, err := database.NewDatabase(database.Config{Driver: DriverSQLite}, conn.DB)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return NewExportRepository(db)
}

func newExport(i int, operation string) *models.Export {
	return &models.Export{
		RequestID:  fmt.Sprintf("req-%d", i),
		Operation:  operation,
		Parameters: models.JSON{"city": "Athenai"},
		Format:     models.FormatXLSX,
		Status:     models.StatusPending,
	}
}

func TestExportRepository_CreateAndGet(t *testing.T) {
	repo := setupExportRepo(t)
	ctx := context.Background()

	export := newExport(1, "customers_by_city")
	require.NoError(t, repo.Create(ctx, export))
	require.NotZero(t, export.ID)

	got, err := repo.GetByID(ctx, export.ID)
	require.NoError(t, err)
	assert.Equal(t, "customers_by_city", got.Operation)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "Athenai", got.Parameters["city"])
	assert.Nil(t, got.GeneratedAt)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrExportNotFound)
}

func TestExportRepository_UpdateStatus(t *testing.T) {
	repo := setupExportRepo(t)
	ctx := context.Background()

	export := newExport(1, "films_by_category")
	require.NoError(t, repo.Create(ctx, export))

	err := repo.UpdateStatus(ctx, export.ID, repository.StatusUpdate{
		Status:   models.StatusCompleted,
		FileKey:  "exports/1/films_by_category.xlsx",
		RowCount: 64,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, export.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	assert.Equal(t, "exports/1/films_by_category.xlsx", got.FileKey)
	assert.Equal(t, 64, got.RowCount)
	assert.NotNil(t, got.GeneratedAt)

	err = repo.UpdateStatus(ctx, export.ID, repository.StatusUpdate{Status: models.StatusFailed})
	assert.Error(t, err)

	err = repo.UpdateStatus(ctx, 999, repository.StatusUpdate{Status: models.StatusFailed})
	assert.ErrorIs(t, err, repository.ErrExportNotFound)
}

func TestExportRepository_List(t *testing.T) {
	repo := setupExportRepo(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		op := "films_by_category"
		if i%2 == 0 {
			op = "customers_by_city"
		}
		require.NoError(t, repo.Create(ctx, newExport(i, op)))
	}
	require.NoError(t, repo.UpdateStatus(ctx, 1, repository.StatusUpdate{Status: models.StatusFailed, Error: "no result"}))

	all, total, err := repo.List(ctx, repository.ListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 2)
	assert.Equal(t, uint(5), all[0].ID)
	assert.Equal(t, uint(4), all[1].ID)

	last, _, err := repo.List(ctx, repository.ListParams{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, uint(1), last[0].ID)

	byOp, total, err := repo.List(ctx, repository.ListParams{Page: 1, PageSize: 10, Operation: "customers_by_city"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byOp, 2)

	failed := models.StatusFailed
	byStatus, total, err := repo.List(ctx, repository.ListParams{Page: 1, PageSize: 10, Status: &failed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "no result", byStatus[0].Error)
}

func TestExportRepository_Delete(t *testing.T) {
	repo := setupExportRepo(t)
	ctx := context.Background()

	export := newExport(1, "films_by_category")
	require.NoError(t, repo.Create(ctx, export))

	require.NoError(t, repo.Delete(ctx, export.ID))

	_, err := repo.GetByID(ctx, export.ID)
	assert.ErrorIs(t, err, repository.ErrExportNotFound)

	err = repo.Delete(ctx, export.ID)
	assert.ErrorIs(t, err, repository.ErrExportNotFound)
}
