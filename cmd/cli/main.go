package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/config"
	"github.com/alextreichler/orderdesk/internal/models"
	"github.com/alextreichler/orderdesk/internal/store"
)

const usage = "expected 'add-admin' or 'list-orders' subcommand"

func main() {
	addAdminCmd := flag.NewFlagSet("add-admin", flag.ExitOnError)
	username := addAdminCmd.String("username", "", "Username for the new admin")
	password := addAdminCmd.String("password", "", "Password for the new admin")

	listOrdersCmd := flag.NewFlagSet("list-orders", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()
	ctx := zctx.Base(context.Background(), lg)

	// Store settings come from the same env and orderdesk.yaml as the server.
	cfg, err := config.Load(zap.NewNop(), nil)
	if err != nil {
		lg.Fatal("Failed to load configuration", zap.Error(err))
	}

	switch os.Args[1] {
	case "add-admin":
		_ = addAdminCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			addAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		err = withStore(ctx, cfg, func(db store.Backend) error {
			return addAdmin(ctx, db, *username, *password)
		})
	case "list-orders":
		_ = listOrdersCmd.Parse(os.Args[2:])
		err = withStore(ctx, cfg, func(db store.Backend) error {
			return listOrders(ctx, db, os.Stdout)
		})
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		lg.Fatal("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func withStore(ctx context.Context, cfg *config.Config, fn func(store.Backend) error) error {
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

func addAdmin(ctx context.Context, repo auth.AdminRepository, username, password string) error {
	admin, err := auth.New(repo).Provision(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Printf("Admin '%s' created successfully.\n", admin.Username)
	return nil
}

type orderLister interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

func listOrders(ctx context.Context, repo orderLister, out io.Writer) error {
	list, err := repo.ListOrders(ctx)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Created", "Name", "Email", "Customer", "P1", "P2", "P3", "Before tax", "After tax")
	for _, o := range list {
		if err := table.Append([]string{
			o.ID,
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.Name,
			o.Email,
			o.CustomerID,
			strconv.Itoa(o.Product1),
			strconv.Itoa(o.Product2),
			strconv.Itoa(o.Product3),
			o.AmountBeforeTax.StringFixed(2),
			o.AmountAfterTax.StringFixed(2),
		}); err != nil {
			return errors.Wrap(err, "append row")
		}
	}
	if err := table.Render(); err != nil {
		return errors.Wrap(err, "render table")
	}
	return nil
}
