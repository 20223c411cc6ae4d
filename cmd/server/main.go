package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/alextreichler/orderdesk/internal/auth"
	"github.com/alextreichler/orderdesk/internal/config"
	"github.com/alextreichler/orderdesk/internal/handlers"
	"github.com/alextreichler/orderdesk/internal/logging"
	"github.com/alextreichler/orderdesk/internal/orders"
	"github.com/alextreichler/orderdesk/internal/store"
	"github.com/alextreichler/orderdesk/web"
)

func main() {
	// Bootstrap logger until the configured one is built.
	boot, _ := zap.NewDevelopment()

	// 1. Load Configuration
	cfg, err := config.Load(boot, os.Args[1:])
	if err != nil {
		boot.Fatal("Failed to load configuration", zap.Error(err))
	}

	lg, err := logging.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		boot.Fatal("Failed to build logger", zap.Error(err))
	}
	defer func() { _ = lg.Sync() }()
	zap.ReplaceGlobals(lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("Server failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	// 2. Init DB and run migrations
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = db.Close() }()
	lg.Info("Store ready", zap.String("driver", cfg.DBDriver))

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load(web.FS, "templates"); err != nil {
		return errors.Wrap(err, "load templates")
	}
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return errors.Wrap(err, "static assets")
	}

	rateLimiter := handlers.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	rateLimiter.StartCleanup(ctx)

	deps := handlers.Deps{
		Logger:      lg,
		Orders:      orders.NewService(db),
		Auth:        auth.New(db),
		Health:      db,
		Sessions:    &handlers.SessionGate{Store: sessionStore},
		Templates:   templates,
		Static:      static,
		RateLimiter: rateLimiter,
	}
	if cfg.CSRFEnabled {
		deps.CSRF = handlers.CSRFProtect(cfg.CSRFKey, cfg.CookieSecure, []string{
			"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port,
		})
	}

	// 5. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("Server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	lg.Info("Shutting down server gracefully", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
