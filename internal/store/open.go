package store

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/orders"
	"github.com/alextreichler/orderdesk/internal/store/postgres"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Backend is a migrated, pingable order and admin store.
type Backend interface {
	orders.Repository
	auth.AdminRepository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*postgres.Store)(nil)
)

// Open connects to the configured driver and applies migrations.
func Open(ctx context.Context, driver, path, databaseURL string) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch driver {
	case DriverSQLite, "":
		b, err = NewStore(path)
	case DriverPostgres:
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		b, err = postgres.Open(ctx, databaseURL)
	default:
		return nil, errors.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := b.Migrate(ctx); err != nil {
		_ = b.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return b, nil
}
