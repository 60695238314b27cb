package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL is a Backend over a single key/value table. It serves both the
// Postgres and the SQLite drivers; queries are written with ? placeholders
// and rebound per driver.
type SQL struct {
	db *sqlx.DB
}

// createTables creates the key/value table if it doesn't exist
func createTables(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			store_key TEXT PRIMARY KEY,
			store_value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`
		SELECT store_value
		FROM kv_store
		WHERE store_key = ?
	`), key)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return []byte(value), true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO kv_store (store_key, store_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (store_key)
		DO UPDATE SET
			store_value = EXCLUDED.store_value,
			updated_at = EXCLUDED.updated_at
	`), key, string(value), time.Now().UTC())

	return err
}

func (s *SQL) Close() error {
	return s.db.Close()
}
