package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"

	"github.com/alextreichler/orderdesk/internal/models"
	"github.com/alextreichler/orderdesk/internal/orders"
)

var _ orders.Repository = (*Store)(nil)

const orderColumns = `id, name, email, customer_id, product1, product2, product3, amount_before_tax, amount_after_tax, created_at`

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.DB.ExecContext(ctx, query,
		order.ID, order.Name, order.Email, order.CustomerID,
		order.Product1, order.Product2, order.Product3,
		order.AmountBeforeTax.StringFixed(2), order.AmountAfterTax.StringFixed(2),
		order.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", order.ID)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at ASC, rowid ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var list []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return list, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	return o, err
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete order %q", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (*models.Order, error) {
	var (
		o       models.Order
		created string
	)
	if err := sc.Scan(
		&o.ID, &o.Name, &o.Email, &o.CustomerID,
		&o.Product1, &o.Product2, &o.Product3,
		&o.AmountBeforeTax, &o.AmountAfterTax,
		&created,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan order")
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, errors.Wrapf(err, "parse created_at %q", created)
	}
	o.CreatedAt = t
	return &o, nil
}
