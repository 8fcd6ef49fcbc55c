package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// ConfigStore persists named Configurations as JSON blobs.
type ConfigStore struct {
	db *DB
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(db *DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Save inserts or replaces the configuration under name.
func (s *ConfigStore) Save(ctx context.Context, name string, cfg *valuation.Configuration) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO configurations (name, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, name, string(payload))
	if err != nil {
		return fmt.Errorf("saving configuration %s: %w", name, err)
	}

	return nil
}

// Load retrieves the configuration stored under name. Returns nil, nil if
// no configuration is stored under that name.
func (s *ConfigStore) Load(ctx context.Context, name string) (*valuation.Configuration, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM configurations WHERE name = ?
	`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying configuration %s: %w", name, err)
	}

	var cfg valuation.Configuration
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration %s: %w", name, err)
	}

	return &cfg, nil
}

// List returns the names of all stored configurations.
func (s *ConfigStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM configurations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning configuration name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Delete removes the configuration stored under name.
func (s *ConfigStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM configurations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting configuration %s: %w", name, err)
	}
	return nil
}
