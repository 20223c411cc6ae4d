package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/models"
)

var _ auth.AdminRepository = (*Store)(nil)

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE username = ?`
	row := s.DB.QueryRowContext(ctx, query, username)

	var (
		admin   models.Admin
		created string
	)
	if err := row.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "scan admin")
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, errors.Wrapf(err, "parse created_at %q", created)
	}
	admin.CreatedAt = t
	return &admin, nil
}

// CreateAdmin is used by the CLI to provision operators.
func (s *Store) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)`
	res, err := s.DB.ExecContext(ctx, query, admin.Username, admin.PasswordHash, admin.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return auth.ErrAdminExists
		}
		return errors.Wrap(err, "insert admin")
	}
	if id, err := res.LastInsertId(); err == nil {
		admin.ID = id
	}
	return nil
}
