package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-faster/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite backed order and admin repository.
type Store struct {
	DB *sql.DB
}

func NewStore(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.DB.Close()
}
