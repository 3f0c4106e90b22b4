package repository

import (
	"context"

	"catalog_srv/internal/domain/query"
)

// QueryExecutor executes a single bound SQL statement and returns its rows.
type QueryExecutor interface {
	Execute(ctx context.Context, stmt string, args ...any) (*query.Table, error)
}
