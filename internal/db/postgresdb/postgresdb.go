// Package postgresdb provides a PostgreSQL-based implementation of the durable
// key/value storage. Every key lives in one row of the kv_entries table, so
// each Set or Remove is a single atomic statement.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresDB is a PostgreSQL-backed implementation of the durable storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs the embedded schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("postgresdb.New: reset database: %w", err)
		}
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("postgresdb.New: set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, result.database, "migrations"); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("postgresdb.New: apply migrations: %w", err)
	}

	return result, nil
}

func (db *PostgresDB) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value []byte
	err := db.database.QueryRowContext(
		ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get", key, err)
	}

	return json.RawMessage(value), true, nil
}

func (db *PostgresDB) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &storage.StorageError{Op: "set", Key: key, Err: errors.New("value is not valid JSON")}
	}

	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO kv_entries (key, value, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE
					SET value = EXCLUDED.value,
						updated_at = EXCLUDED.updated_at
		`,
		key,
		string(value),
	)

	return storage.Wrap("set", key, err)
}

func (db *PostgresDB) Remove(ctx context.Context, key string) error {
	_, err := db.database.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)

	return storage.Wrap("remove", key, err)
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)

	return err
}
