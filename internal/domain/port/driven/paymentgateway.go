package driven

import (
	"context"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// PaymentGateway defines the driven port for the payment API calls that need a
// bearer token.
type PaymentGateway interface {
	// CreatePaymentIntent creates an intent upstream. Failures are reported as
	// model.ErrUpstreamRequest.
	CreatePaymentIntent(ctx context.Context, token string, req model.PaymentIntentRequest) (model.PaymentIntent, error)

	// GetPaymentIntent retrieves an intent by ID. Returns model.ErrNotFound
	// when the API does not know the ID.
	GetPaymentIntent(ctx context.Context, token, id string) (model.PaymentIntent, error)
}
