package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"catalog_srv/internal/config"
	"catalog_srv/internal/domain/catalog"
	"catalog_srv/internal/domain/query"
	"catalog_srv/internal/models"
	"catalog_srv/internal/usecase"
	"catalog_srv/internal/usecase/repository"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// HTTPServer is the lifecycle surface used by the fx hooks.
type HTTPServer interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	queries *usecase.QueryService
	exports *usecase.ExportService
	logger  *logrus.Logger
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, queries *usecase.QueryService, exports *usecase.ExportService, logger *logrus.Logger) *Server {
	e := echo.New()
	e.Debug = cfg.IsDevelopment()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	if cfg.IsDevelopment() {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human} ${error}\n",
		}))
	}

	s := &Server{
		echo:    e,
		queries: queries,
		exports: exports,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.WithField("address", address).Info("Starting HTTP server")
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or exercised with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	{
		api.GET("/operations", s.listOperations)
		api.POST("/queries/:operation", s.runQuery)

		exports := api.Group("/exports")
		{
			exports.POST("", s.createExport)
			exports.GET("", s.listExports)
			exports.GET("/:id", s.getExport)
			exports.GET("/:id/download", s.downloadExport)
			exports.GET("/:id/link", s.exportLink)
			exports.DELETE("/:id", s.deleteExport)
		}
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "catalog-service",
	})
}

type operationInfo struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Params      []catalog.ParamInfo `json:"params"`
	Columns     []string            `json:"columns"`
	Stub        bool                `json:"stub,omitempty"`
}

func (s *Server) listOperations(c echo.Context) error {
	ops := catalog.Operations()
	out := make([]operationInfo, len(ops))
	for i, op := range ops {
		out[i] = operationInfo{
			Name:        op.Name,
			Description: op.Description,
			Params:      op.ParamInfo(),
			Columns:     op.Columns,
			Stub:        op.Stub,
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"operations": out,
		"count":      len(out),
	})
}

type queryRequest struct {
	Params map[string]any `json:"params"`
}

type queryResponse struct {
	Operation string `json:"operation"`
	Result    any    `json:"result"`
	RowCount  int    `json:"row_count"`
}

// runQuery answers 200 for both a table and "no result" (result: null);
// only execution failures are reported as errors. With ?shape=records the
// result is a list of objects keyed by column name.
func (s *Server) runQuery(c echo.Context) error {
	var req queryRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	operation := c.Param("operation")
	table, err := s.queries.Execute(c.Request().Context(), query.Request{
		Operation: operation,
		Params:    toParams(req.Params),
	})
	if err != nil {
		return s.fail(c, err, "Query failed")
	}

	var result any = table
	if c.QueryParam("shape") == "records" {
		result = table.Records()
	}
	return c.JSON(http.StatusOK, queryResponse{
		Operation: operation,
		Result:    result,
		RowCount:  table.Len(),
	})
}

type exportRequest struct {
	Operation string         `json:"operation" validate:"required"`
	Params    map[string]any `json:"params"`
	Format    string         `json:"format" validate:"omitempty,oneof=xlsx csv"`
}

func (s *Server) createExport(c echo.Context) error {
	var req exportRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	export, err := s.exports.Export(c.Request().Context(), query.Request{
		Operation: req.Operation,
		Params:    toParams(req.Params),
	}, req.Format)
	if errors.Is(err, usecase.ErrNoResult) {
		return c.JSON(http.StatusUnprocessableEntity, export)
	}
	if err != nil {
		return s.fail(c, err, "Failed to create export")
	}

	return c.JSON(http.StatusCreated, export)
}

func (s *Server) listExports(c echo.Context) error {
	params := repository.ListParams{Operation: c.QueryParam("operation")}
	params.Page, _ = strconv.Atoi(c.QueryParam("page"))
	params.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if st := c.QueryParam("status"); st != "" {
		status := models.ExportStatus(st)
		params.Status = &status
	}

	list, err := s.exports.List(c.Request().Context(), params)
	if err != nil {
		return s.fail(c, err, "Failed to list exports")
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getExport(c echo.Context) error {
	id, err := exportID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export ID"})
	}

	export, err := s.exports.Get(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, "Failed to get export")
	}
	return c.JSON(http.StatusOK, export)
}

func (s *Server) downloadExport(c echo.Context) error {
	id, err := exportID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export ID"})
	}

	rc, filename, mime, err := s.exports.Open(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, "Failed to open export")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Stream(http.StatusOK, mime, rc)
}

func (s *Server) exportLink(c echo.Context) error {
	id, err := exportID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export ID"})
	}

	url, err := s.exports.Link(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, "Failed to create export link")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (s *Server) deleteExport(c echo.Context) error {
	id, err := exportID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid export ID"})
	}

	if err := s.exports.Delete(c.Request().Context(), id); err != nil {
		return s.fail(c, err, "Failed to delete export")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Export deleted successfully"})
}

// fail maps service errors to HTTP statuses and logs unexpected ones.
func (s *Server) fail(c echo.Context, err error, msg string) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrUnknownOperation), errors.Is(err, repository.ErrExportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrExportNotReady):
		status = http.StatusConflict
	default:
		s.logger.WithError(err).WithField("path", c.Path()).Error(msg)
	}
	return c.JSON(status, map[string]string{"error": fmt.Sprintf("%s: %v", msg, err)})
}

// decodeJSON keeps numeric literals as json.Number so that integers and
// reals stay distinguishable. An empty body is accepted.
func decodeJSON(c echo.Context, dst any) error {
	if c.Request().Body == nil {
		return nil
	}
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func toParams(raw map[string]any) query.Params {
	params := make(query.Params, len(raw))
	for name, v := range raw {
		params[name] = query.FromJSON(v)
	}
	return params
}

func exportID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
