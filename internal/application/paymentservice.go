package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/paygate/internal/domain/model"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
)

// ErrLedgerDisabled is returned by ledger-only lookups when no IntentStore is configured.
var ErrLedgerDisabled = errors.New("intent ledger is disabled")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PaymentService creates and looks up payment intents. It obtains a bearer
// token from the TokenSource before every upstream call and records created
// intents in the ledger when one is configured.
type PaymentService struct {
	tokens   TokenSource
	gateway  driven.PaymentGateway
	store    driven.IntentStore
	currency string
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// NewPaymentService creates a PaymentService. store may be nil, in which case
// intents are not recorded and ListPaymentIntents returns an empty slice.
func NewPaymentService(
	tokens TokenSource,
	gateway driven.PaymentGateway,
	store driven.IntentStore,
	currency string,
	logger *slog.Logger,
) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		tokens:   tokens,
		gateway:  gateway,
		store:    store,
		currency: currency,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logger,
	}
}

// CreatePaymentIntent creates an intent for amount, expressed in the smallest
// currency unit. Errors from the TokenSource are returned unchanged.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, amount int64) (model.PaymentIntent, error) {
	if amount < 0 {
		return model.PaymentIntent{}, fmt.Errorf("%w: amount must not be negative", model.ErrInvalidRequest)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return model.PaymentIntent{}, err
	}

	req := model.PaymentIntentRequest{
		Amount:          amount,
		Currency:        s.currency,
		MerchantOrderID: "order-" + s.newID(),
		RequestID:       s.newID(),
		CaptureMethod:   model.CaptureMethodAutomatic,
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, token, req)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}

	// The API echoes these, but older responses omit them.
	if intent.Amount == 0 {
		intent.Amount = req.Amount
	}
	if intent.Currency == "" {
		intent.Currency = req.Currency
	}
	if intent.MerchantOrderID == "" {
		intent.MerchantOrderID = req.MerchantOrderID
	}
	if intent.RequestID == "" {
		intent.RequestID = req.RequestID
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = s.now().UTC()
	}

	s.logger.Info("payment intent created",
		"intent_id", intent.ID,
		"amount", intent.Amount,
		"currency", intent.Currency,
		"merchant_order_id", intent.MerchantOrderID,
	)

	if s.store != nil {
		if err := s.store.Save(ctx, intent); err != nil {
			// The intent exists upstream; losing the ledger row must not fail checkout.
			s.logger.Error("failed to record payment intent", "intent_id", intent.ID, "error", err)
		}
	}

	return intent, nil
}

// GetPaymentIntent fetches the current state of an intent from the payment API
// and refreshes the ledger row's status. Returns model.ErrNotFound for unknown IDs.
func (s *PaymentService) GetPaymentIntent(ctx context.Context, id string) (model.PaymentIntent, error) {
	if id == "" {
		return model.PaymentIntent{}, fmt.Errorf("%w: payment intent id is required", model.ErrInvalidRequest)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return model.PaymentIntent{}, err
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, token, id)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("get payment intent %s: %w", id, err)
	}

	if s.store != nil && intent.Status != "" {
		if err := s.store.UpdateStatus(ctx, id, intent.Status); err != nil {
			s.logger.Debug("payment intent status not recorded", "intent_id", id, "error", err)
		}
	}

	return intent, nil
}

// GetRecordedPaymentIntent returns the ledger row for id without calling the
// payment API. The status is whatever the last create or lookup recorded.
func (s *PaymentService) GetRecordedPaymentIntent(ctx context.Context, id string) (model.PaymentIntent, error) {
	if id == "" {
		return model.PaymentIntent{}, fmt.Errorf("%w: payment intent id is required", model.ErrInvalidRequest)
	}
	if s.store == nil {
		return model.PaymentIntent{}, ErrLedgerDisabled
	}

	intent, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("get recorded payment intent %s: %w", id, err)
	}
	if intent == nil {
		return model.PaymentIntent{}, fmt.Errorf("recorded payment intent %s: %w", id, model.ErrNotFound)
	}

	return *intent, nil
}

// ListPaymentIntents returns the most recently recorded intents. limit is
// clamped to [1, 100]; zero selects the default of 20.
func (s *PaymentService) ListPaymentIntents(ctx context.Context, limit int) ([]model.PaymentIntent, error) {
	if s.store == nil {
		return []model.PaymentIntent{}, nil
	}

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	intents, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list payment intents: %w", err)
	}
	if intents == nil {
		intents = []model.PaymentIntent{}
	}
	return intents, nil
}
