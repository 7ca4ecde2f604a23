package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ericfisherdev/paygate/internal/adapter/driven/airwallex"
	sqliteadapter "github.com/ericfisherdev/paygate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/paygate/internal/application"
	"github.com/ericfisherdev/paygate/internal/config"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
	"github.com/ericfisherdev/paygate/internal/logging"
)

var errLedgerDisabled = fmt.Errorf("%w (PAYGATE_DB_PATH is empty)", application.ErrLedgerDisabled)

// env is the wired object graph one command runs against.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *application.TokenCache
	payments *application.PaymentService
	db       *sqliteadapter.DB
}

// newEnv loads configuration and wires the client, token cache and, when
// enabled, the migrated ledger. Logs go to stderr so stdout stays parseable.
func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Output: os.Stderr,
		Format: logging.FormatText,
		Level:  cfg.LogLevel,
	})

	client, err := airwallex.NewClient(cfg.APIBaseURL, cfg.ClientID, cfg.APIKey, cfg.UpstreamTimeout, logger)
	if err != nil {
		return nil, err
	}
	tokens := application.NewTokenCache(client, cfg.UpstreamTimeout, logger)

	e := &env{cfg: cfg, logger: logger, tokens: tokens}

	var store driven.IntentStore
	if cfg.LedgerEnabled() {
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		e.db = db

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			e.close()
			return nil, err
		}

		repo, err := sqliteadapter.NewIntentRepo(db, cfg.SecretKey)
		if err != nil {
			e.close()
			return nil, err
		}
		store = repo
	}

	e.payments = application.NewPaymentService(tokens, client, store, cfg.Currency, logger)
	return e, nil
}

func (e *env) close() {
	if e.db == nil {
		return
	}
	if err := e.db.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}
