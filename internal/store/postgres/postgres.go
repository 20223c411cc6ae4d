// Package postgres implements the order and admin repositories on PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"time"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/models"
	"github.com/alextreichler/orderdesk/internal/orders"
)

// schema contains idempotent DDL for all tables.
//
//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

var (
	_ orders.Repository    = (*Store)(nil)
	_ auth.AdminRepository = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
}

// NewPool creates a pgxpool.Pool with shopspring/decimal support for NUMERIC
// columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	return pool, nil
}

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const orderColumns = `id, name, email, customer_id, product1, product2, product3, amount_before_tax, amount_after_tax, created_at`

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Name, o.Email, o.CustomerID,
		o.Product1, o.Product2, o.Product3,
		o.AmountBeforeTax, o.AmountAfterTax, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return models.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "collect orders")
	}
	return list, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete order %q", id)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.Name, &o.Email, &o.CustomerID,
		&o.Product1, &o.Product2, &o.Product3,
		&o.AmountBeforeTax, &o.AmountAfterTax, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return &o, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get admin")
	}
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *models.Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO admins (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id`,
		a.Username, a.PasswordHash, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.ErrAdminExists
		}
		return errors.Wrap(err, "insert admin")
	}
	return nil
}
