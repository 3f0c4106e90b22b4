package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"catalog_srv/internal/domain/query"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB is the catalog connection. The embedded *sql.DB is handed to gorm,
// queries go through sqlx over the same pool.
type DB struct {
	*sql.DB
	x *sqlx.DB
}

// Open opens the catalog connection and checks that it is reachable.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver == "sqlite" {
		driver = DriverSQLite
	}
	x, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return &DB{DB: x.DB, x: x}, nil
}

// Execute runs a single statement with bound arguments and returns the
// rows as a table in driver column order.
func (d *DB) Execute(ctx context.Context, stmt string, args ...any) (*query.Table, error) {
	rows, err := d.x.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
	}

	table := query.NewTable(cols...)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = normalize(types[i], v)
		}
		table.Append(vals...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// normalize converts driver byte slices into strings, and NUMERIC values
// (AVG over integers, payment amounts) into float64.
func normalize(ct *sql.ColumnType, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch strings.ToUpper(ct.DatabaseTypeName()) {
	case "NUMERIC", "DECIMAL":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return string(b)
}
