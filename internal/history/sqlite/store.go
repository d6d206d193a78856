// Package sqlite stores history in a device-local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"ehopa/internal/registration/models"
	"ehopa/pkg/platform/tx"
)

// Store keeps one row per record. The autoincrement sequence orders rows, so
// the newest record has the highest seq.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path.
func New(path string) (*Store, error) {
	if path == "" {
		path = "ehopa_history.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers; SQLite allows one at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		generated_id TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns every record, newest first.
func (s *Store) Get(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var rec models.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Put replaces the whole history. records is newest first.
func (s *Store) Put(ctx context.Context, records []models.Record) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := tx.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM history`); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		for i := len(records) - 1; i >= 0; i-- {
			if err := s.insert(ctx, records[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Append prepends record.
func (s *Store) Append(ctx context.Context, record models.Record) error {
	return s.insert(ctx, record)
}

// insert runs on the transaction in ctx when there is one.
func (s *Store) insert(ctx context.Context, record models.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO history (generated_id, payload) VALUES (?, ?)`,
		record.GeneratedID, payload,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}
