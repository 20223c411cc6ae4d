package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded .sql file not yet recorded in schema_migrations,
// in file name order, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	lg := zctx.From(ctx)

	if _, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return errors.Wrap(err, "create schema_migrations table")
	}

	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		applied, err := isApplied(ctx, s.DB, file)
		if err != nil {
			return err
		}
		if applied {
			lg.Debug("Skipping applied migration", zap.String("file", file))
			continue
		}

		content, err := migrations.ReadFile("migrations/" + file)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", file)
		}

		lg.Info("Applying migration", zap.String("file", file))
		if err := applyMigration(ctx, s.DB, file, string(content)); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version, content string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, content); err != nil {
		return errors.Wrapf(err, "execute migration %s", version)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return errors.Wrapf(err, "record migration %s", version)
	}
	return tx.Commit()
}

func isApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, version).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.Wrap(err, "check migration")
	}
	return true, nil
}
