package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens an in-memory SQLite database. A single connection keeps
// every statement on the same in-memory schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedFilms(t *testing.T, db *DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE film (film_id INTEGER PRIMARY KEY, title TEXT NOT NULL, length INTEGER, rental_rate NUMERIC, description BLOB)`,
		`INSERT INTO film (film_id, title, length, rental_rate, description) VALUES
			(1, 'Academy Dinosaur', 86, 0.99, x'41'),
			(2, 'Ace Goldfinger', 48, 4.99, NULL),
			(3, 'Adaptation Holes', 50, 2.99, NULL)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	db := setupTestDB(t)
	seedFilms(t, db)

	table, err := db.Execute(context.Background(),
		`SELECT length, title FROM film WHERE length >= ? ORDER BY length`, int64(49))
	require.NoError(t, err)
	require.NotNil(t, table)

	assert.Equal(t, []string{"length", "title"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{int64(50), "Adaptation Holes"}, table.Rows[0])
	assert.Equal(t, []any{int64(86), "Academy Dinosaur"}, table.Rows[1])
	assert.Equal(t, "Academy Dinosaur", table.Row(1)["title"])
}

func TestExecuteConvertsBytesAndNulls(t *testing.T) {
	db := setupTestDB(t)
	seedFilms(t, db)

	table, err := db.Execute(context.Background(),
		`SELECT description FROM film ORDER BY film_id`)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"A"}, {nil}, {nil}}, table.Rows)
}

func TestExecuteEmptyResult(t *testing.T) {
	db := setupTestDB(t)
	seedFilms(t, db)

	table, err := db.Execute(context.Background(),
		`SELECT title, length FROM film WHERE length > ?`, 1000)
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, []string{"title", "length"}, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestExecuteError(t *testing.T) {
	db := setupTestDB(t)

	table, err := db.Execute(context.Background(), `SELECT title FROM missing_table`)
	assert.Error(t, err)
	assert.Nil(t, table)
}

func TestExecuteCanceledContext(t *testing.T) {
	db := setupTestDB(t)
	seedFilms(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.Execute(ctx, `SELECT title FROM film`)
	assert.ErrorIs(t, err, context.Canceled)
}
