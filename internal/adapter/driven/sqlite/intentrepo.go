package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/paygate/internal/domain/model"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IntentStore = (*IntentRepo)(nil)

// timeLayout has a fixed fraction width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// IntentRepo is the SQLite implementation of the IntentStore port interface.
// Client secrets are encrypted with AES-256-GCM when a key is configured and
// are not stored at all otherwise.
type IntentRepo struct {
	db  *DB
	key []byte
	now func() time.Time
}

// NewIntentRepo creates a new IntentRepo. key must be KeySize bytes, or nil to
// skip storing client secrets.
func NewIntentRepo(db *DB, key []byte) (*IntentRepo, error) {
	if key != nil && len(key) != KeySize {
		return nil, fmt.Errorf("intent repo: key must be %d bytes, got %d", KeySize, len(key))
	}
	return &IntentRepo{db: db, key: key, now: time.Now}, nil
}

// Save inserts or replaces the intent keyed by its ID.
func (r *IntentRepo) Save(ctx context.Context, intent model.PaymentIntent) error {
	secret := ""
	if r.key != nil && intent.ClientSecret != "" {
		var err error
		secret, err = seal(r.key, intent.ClientSecret)
		if err != nil {
			return fmt.Errorf("encrypt client secret for %s: %w", intent.ID, err)
		}
	}

	now := r.now().UTC()
	createdAt := intent.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := intent.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	const query = `INSERT OR REPLACE INTO payment_intents
		(id, request_id, merchant_order_id, amount, currency, status, client_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		intent.ID,
		intent.RequestID,
		intent.MerchantOrderID,
		intent.Amount,
		intent.Currency,
		intent.Status,
		secret,
		formatTime(createdAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save payment intent %s: %w", intent.ID, err)
	}
	return nil
}

// GetByID returns the stored intent, or nil, nil if it does not exist.
func (r *IntentRepo) GetByID(ctx context.Context, id string) (*model.PaymentIntent, error) {
	const query = `SELECT id, request_id, merchant_order_id, amount, currency, status, client_secret, created_at, updated_at
		FROM payment_intents WHERE id = ?`

	intent, err := r.scanIntent(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}

	return intent, nil
}

// ListRecent returns up to limit intents, newest first.
func (r *IntentRepo) ListRecent(ctx context.Context, limit int) ([]model.PaymentIntent, error) {
	const query = `SELECT id, request_id, merchant_order_id, amount, currency, status, client_secret, created_at, updated_at
		FROM payment_intents ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list payment intents: %w", err)
	}
	defer rows.Close()

	var intents []model.PaymentIntent
	for rows.Next() {
		intent, err := r.scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment intent: %w", err)
		}
		intents = append(intents, *intent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment intents: %w", err)
	}

	return intents, nil
}

// UpdateStatus sets the status of a stored intent.
func (r *IntentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE payment_intents SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, status, formatTime(r.now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update payment intent %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update payment intent %s: %w", id, model.ErrNotFound)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *IntentRepo) scanIntent(s scanner) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	var secret, createdAt, updatedAt string

	err := s.Scan(
		&intent.ID,
		&intent.RequestID,
		&intent.MerchantOrderID,
		&intent.Amount,
		&intent.Currency,
		&intent.Status,
		&secret,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if secret != "" && r.key != nil {
		intent.ClientSecret, err = open(r.key, secret)
		if err != nil {
			return nil, fmt.Errorf("decrypt client secret for %s: %w", intent.ID, err)
		}
	}

	intent.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	intent.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &intent, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime tries the stored layout first, then common SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
