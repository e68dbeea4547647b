//go:build sqlite

package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	sqlStore
	path string

	mu sync.Mutex
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, sqlStore: sqlStore{rebind: sameParams}}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	if err := s.createTables(ctx, "INTEGER PRIMARY KEY AUTOINCREMENT"); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
