// Package sqlitedb stores the key/value entries in a device-local SQLite file
// through the pure Go driver, so no cgo toolchain is required.
package sqlitedb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteDB struct {
	database *sqlx.DB
}

// New opens (or creates) the database at path and applies the embedded
// migrations. Use ":memory:" for a throwaway database.
func New(ctx context.Context, path string) (*SQLiteDB, error) {
	database, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb.New: open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is
	// per connection.
	database.SetMaxOpenConns(1)

	if _, err := database.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("sqlitedb.New: enable WAL mode: %w", err)
	}

	if err := migrate(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, err
	}

	return &SQLiteDB{database: database}, nil
}

func migrate(ctx context.Context, database *sql.DB) error {
	migrationsDir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlitedb.New: open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, database, migrationsDir)
	if err != nil {
		return fmt.Errorf("sqlitedb.New: create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("sqlitedb.New: apply migrations: %w", err)
	}

	return nil
}

func (db *SQLiteDB) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value string
	err := db.database.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get", key, err)
	}

	return json.RawMessage(value), true, nil
}

func (db *SQLiteDB) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &storage.StorageError{Op: "set", Key: key, Err: errors.New("value is not valid JSON")}
	}

	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO kv_entries (key, value, updated_at)
				VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
				ON CONFLICT (key) DO UPDATE
					SET value = excluded.value,
						updated_at = excluded.updated_at
		`,
		key,
		string(value),
	)

	return storage.Wrap("set", key, err)
}

func (db *SQLiteDB) Remove(ctx context.Context, key string) error {
	_, err := db.database.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)

	return storage.Wrap("remove", key, err)
}

func (db *SQLiteDB) Ping(ctx context.Context) error {
	return db.database.PingContext(ctx)
}

func (db *SQLiteDB) Close() error {
	return db.database.Close()
}
