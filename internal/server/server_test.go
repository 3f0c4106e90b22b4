package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog_srv/internal/config"
	"catalog_srv/internal/database"
	"catalog_srv/internal/domain/catalog"
	"catalog_srv/internal/domain/query"
	sqlinfra "catalog_srv/internal/infrastructure/sql"
	"catalog_srv/internal/infrastructure/template"
	"catalog_srv/internal/models"
	"catalog_srv/internal/storage"
	"catalog_srv/internal/usecase"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExecutor is a mock implementation of the QueryExecutor interface
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, stmt string, args ...any) (*query.Table, error) {
	ret := m.Called(ctx, stmt, args)
	table, _ := ret.Get(0).(*query.Table)
	return table, ret.Error(1)
}

func setupTestServer(t *testing.T) (*Server, *MockExecutor) {
	t.Helper()
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	conn, err := sqlinfra.Open(ctx, sqlinfra.DriverSQLite, ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db, err := database.NewDatabase(database.Config{Driver: sqlinfra.DriverSQLite}, conn.DB)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := config.Config{Storage: config.Storage{Type: storage.StorageTypeLocal, BasePath: t.TempDir()}}
	files, err := storage.NewStorageFromConfig(cfg, logger)
	require.NoError(t, err)

	exec := new(MockExecutor)
	queries := usecase.NewQueryService(exec, logger)
	exports := usecase.NewExportService(queries, sqlinfra.NewExportRepository(db), files,
		models.FormatXLSX, logger, template.NewXLSX(), template.NewCSV())

	return NewServer(cfg, queries, exports, logger), exec
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestListOperations(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/operations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(11), body["count"])

	ops := body["operations"].([]any)
	first := ops[0].(map[string]any)
	assert.Equal(t, catalog.AvgRentalAmountByLength, first["name"])
	params := first["params"].([]any)
	assert.Equal(t, "length", params[0].(map[string]any)["name"])
}

func TestRunQuery(t *testing.T) {
	s, exec := setupTestServer(t)

	table := query.NewTable("title", "language", "category")
	table.Append("Amadeus Holy", "English", "Action")
	exec.On("Execute", mock.Anything, catalog.SQLFilmsByCategoryID, []any{int64(1)}).Return(table, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/queries/films_by_category", `{"params":{"category_id":1}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "films_by_category", body["operation"])
	assert.Equal(t, float64(1), body["row_count"])
	result := body["result"].(map[string]any)
	assert.Equal(t, []any{"title", "language", "category"}, result["columns"])
	assert.Equal(t, []any{[]any{"Amadeus Holy", "English", "Action"}}, result["rows"])
}

func TestRunQueryNoResult(t *testing.T) {
	s, exec := setupTestServer(t)

	bodies := []string{
		`{"params":{"category_id":"1"}}`,
		`{"params":{"category_id":1.5}}`,
		`{"params":{"category_id":true}}`,
		`{"params":{"category_id":null}}`,
		`{"params":{}}`,
		``,
	}
	for _, b := range bodies {
		rec := do(t, s, http.MethodPost, "/api/v1/queries/films_by_category", b)
		require.Equal(t, http.StatusOK, rec.Code, b)

		body := decode(t, rec)
		assert.Nil(t, body["result"], b)
		assert.Equal(t, float64(0), body["row_count"], b)
	}
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunQueryDefaults(t *testing.T) {
	s, exec := setupTestServer(t)
	exec.On("Execute", mock.Anything, catalog.SQLFilmCountByLengthRange, []any{int64(46), float64(1e6)}).
		Return(query.NewTable("length", "count"), nil)

	rec := do(t, s, http.MethodPost, "/api/v1/queries/film_count_by_length_range", `{"params":{"min_length":46}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.NotNil(t, body["result"])
	exec.AssertExpectations(t)
}

func TestRunQueryErrors(t *testing.T) {
	s, exec := setupTestServer(t)
	exec.On("Execute", mock.Anything, catalog.SQLCustomersByCity, []any{"Athenai"}).
		Return(nil, errors.New("connection refused"))

	rec := do(t, s, http.MethodPost, "/api/v1/queries/unknown_operation", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/queries/customers_by_city", `{"params":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/queries/customers_by_city", `{"params":{"city":"Athenai"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "connection refused")
}

func TestExportLifecycle(t *testing.T) {
	s, exec := setupTestServer(t)

	table := query.NewTable("city", "first_name", "last_name")
	table.Append("Athenai", "Linda", "Williams")
	exec.On("Execute", mock.Anything, catalog.SQLCustomersByCity, []any{"Athenai"}).Return(table, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/exports",
		`{"operation":"customers_by_city","params":{"city":"Athenai"},"format":"csv"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode(t, rec)
	assert.Equal(t, "completed", created["status"])
	assert.Equal(t, float64(1), created["row_count"])

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "customers_by_city", decode(t, rec)["operation"])

	rec = do(t, s, http.MethodGet, "/api/v1/exports?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "customers_by_city_1.csv")
	assert.Equal(t, "city,first_name,last_name\nAthenai,Linda,Williams\n", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1/link", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["url"], "file://")

	rec = do(t, s, http.MethodDelete, "/api/v1/exports/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateExportErrors(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/exports", `{"params":{"city":"Athenai"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/exports", `{"operation":"customers_by_city","format":"pdf"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/exports", `{"operation":"unknown_operation"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/exports", `{"operation":"customers_by_city","params":{"city":7}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "no result", body["error"])

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1/download", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/exports/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewServerDevelopment(t *testing.T) {
	s, _ := setupTestServer(t)
	assert.False(t, s.echo.Debug)

	cfg := config.Config{Server: config.Server{Debug: true}}
	dev := NewServer(cfg, s.queries, s.exports, s.logger)
	assert.True(t, dev.echo.Debug)
}

func TestRunQueryRecords(t *testing.T) {
	s, exec := setupTestServer(t)

	table := query.NewTable("first_name", "last_name")
	table.Append("Mary", "Smith")
	table.Append("Linda", "Williams")
	exec.On("Execute", mock.Anything, catalog.SQLCustomersByCity, []any{"Athenai"}).Return(table, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/queries/customers_by_city?shape=records", `{"params":{"city":"Athenai"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["row_count"])
	assert.Equal(t, []any{
		map[string]any{"first_name": "Mary", "last_name": "Smith"},
		map[string]any{"first_name": "Linda", "last_name": "Williams"},
	}, body["result"])

	rec = do(t, s, http.MethodPost, "/api/v1/queries/customers_by_city?shape=records", `{"params":{"city":7}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["result"])
}

func TestExportFileMissing(t *testing.T) {
	s, exec := setupTestServer(t)
	exec.On("Execute", mock.Anything, catalog.SQLCustomersByCity, []any{"Athenai"}).
		Return(query.NewTable("city", "first_name", "last_name"), nil)

	rec := do(t, s, http.MethodPost, "/api/v1/exports",
		`{"operation":"customers_by_city","params":{"city":"Athenai"},"format":"csv"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	key, _ := decode(t, rec)["file_key"].(string)
	require.NotEmpty(t, key)
	require.NoError(t, s.exports.Storage.Delete(context.Background(), key))

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1/download", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/exports/1/link", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
