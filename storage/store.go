// Package storage persists script context globals between server runs.
// The backing store is a single SQLite database.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/torchlight/gserver/script"
)

const schema = `
CREATE TABLE IF NOT EXISTS globals (
	owner TEXT NOT NULL,
	name  TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (owner, name)
);
`

// Store reads and writes per-owner globals.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// the sqlite driver does not support concurrent writers on one
	// connection pool entry; serialize through a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGlobals replaces the stored globals of one owner atomically.
func (s *Store) SaveGlobals(owner string, globals map[string]script.Value) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM globals WHERE owner = ?`, owner); err != nil {
		return err
	}
	for name, v := range globals {
		data, err := EncodeValue(v)
		if err != nil {
			return fmt.Errorf("encoding %s.%s: %w", owner, name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO globals (owner, name, value) VALUES (?, ?, ?)`,
			owner, name, data,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadGlobals reads the stored globals of one owner. Unknown owners
// yield an empty map.
func (s *Store) LoadGlobals(owner string) (map[string]script.Value, error) {
	rows, err := s.db.Query(`SELECT name, value FROM globals WHERE owner = ?`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	globals := make(map[string]script.Value)
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		v, err := DecodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s.%s: %w", owner, name, err)
		}
		globals[name] = v
	}
	return globals, rows.Err()
}

// DeleteOwner drops all stored globals of one owner.
func (s *Store) DeleteOwner(owner string) error {
	_, err := s.db.Exec(`DELETE FROM globals WHERE owner = ?`, owner)
	return err
}
