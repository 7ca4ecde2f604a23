package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/paygate/internal/adapter/driven/airwallex"
	sqliteadapter "github.com/ericfisherdev/paygate/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/paygate/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/paygate/internal/adapter/driving/web"
	"github.com/ericfisherdev/paygate/internal/application"
	"github.com/ericfisherdev/paygate/internal/config"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
	"github.com/ericfisherdev/paygate/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Format: logging.Format(cfg.LogFormat),
		Level:  cfg.LogLevel,
		Attrs:  []slog.Attr{slog.String("service", "paygate")},
	})
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr(),
		"api_base_url", cfg.APIBaseURL,
		"currency", cfg.Currency,
		"static_dir", cfg.StaticDir,
		"db_path", cfg.DBPath,
		"client_secret_encryption", cfg.SecretKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Payment API client and the process-wide token cache.
	client, err := airwallex.NewClient(cfg.APIBaseURL, cfg.ClientID, cfg.APIKey, cfg.UpstreamTimeout, logger)
	if err != nil {
		return err
	}
	tokens := application.NewTokenCache(client, cfg.UpstreamTimeout, logger)

	// 4. Optional intent ledger (dual reader/writer with WAL mode).
	var store driven.IntentStore
	if cfg.LedgerEnabled() {
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		slog.Info("migrations complete")

		repo, err := sqliteadapter.NewIntentRepo(db, cfg.SecretKey)
		if err != nil {
			return err
		}
		store = repo
	} else {
		slog.Info("intent ledger disabled")
	}

	// 5. Application service.
	gateway := logging.NewGatewayLogger(client, logger)
	payments := application.NewPaymentService(tokens, gateway, store, cfg.Currency, logger)

	// 6. Static assets.
	assets, err := webhandler.AssetsFS(cfg.StaticDir)
	if err != nil {
		return err
	}
	if cfg.StaticDir == "" {
		slog.Info("serving embedded static assets")
	}

	// 7. Register API and static routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(payments, tokens, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(assets, logger))

	// Traversal check runs before the mux can clean and redirect the path.
	handler := httphandler.ApplyMiddleware(webhandler.TraversalGuard(mux), logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	slog.Info("paygate started", "listen_addr", srv.Addr)

	// 8. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-srvErr:
		if err != nil {
			return err
		}
	}

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
