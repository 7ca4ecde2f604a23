package driven

import (
	"context"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// IntentStore defines the driven port for the local ledger of created payment
// intents.
type IntentStore interface {
	// Save inserts or replaces the intent keyed by its ID.
	Save(ctx context.Context, intent model.PaymentIntent) error

	// GetByID returns the stored intent, or nil, nil if it is unknown.
	GetByID(ctx context.Context, id string) (*model.PaymentIntent, error)

	// ListRecent returns up to limit intents, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.PaymentIntent, error)

	// UpdateStatus sets the status of a stored intent. Returns
	// model.ErrNotFound if no row matches.
	UpdateStatus(ctx context.Context, id, status string) error
}
