// Package store provides SQLite-backed persistence for named
// Configurations. The valuation engine itself never reads or writes a
// database; this package exists purely so named configurations can be
// saved once and reused across requests.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB wraps a sql.DB with configuration-store helpers.
type DB struct {
	*sql.DB
}

// Open opens a SQLite database at the given path. If path is ":memory:"
// an in-memory database is created.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// OpenAndInit opens the database and creates the configurations/dump_imports
// tables if they don't already exist.
func OpenAndInit(ctx context.Context, path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// InTransaction executes fn within a transaction, rolling back on error
// and committing otherwise.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// RecordImport notes that configName was last populated from a prototype
// dump at sourcePath with the given content hash, so a caller can detect
// later whether the dump on disk has changed since the last import.
func (db *DB) RecordImport(ctx context.Context, configName, sourcePath, contentHash string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO dump_imports (config_name, source_path, content_hash, imported_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(config_name) DO UPDATE SET
			source_path  = excluded.source_path,
			content_hash = excluded.content_hash,
			imported_at  = excluded.imported_at
	`, configName, sourcePath, contentHash)

	if err != nil {
		return fmt.Errorf("recording import for %s: %w", configName, err)
	}

	return nil
}

// LastImportHash returns the content hash recorded for configName's most
// recent import, or "" if no import has been recorded for it.
func (db *DB) LastImportHash(ctx context.Context, configName string) (string, error) {
	var hash string
	err := db.QueryRowContext(ctx,
		`SELECT content_hash FROM dump_imports WHERE config_name = ?`,
		configName,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying last import hash for %s: %w", configName, err)
	}

	return hash, nil
}
