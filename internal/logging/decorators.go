package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/paygate/internal/domain/model"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
)

// GatewayLogger wraps a PaymentGateway and logs every upstream call with its duration.
type GatewayLogger struct {
	gateway driven.PaymentGateway
	logger  *slog.Logger
}

// NewGatewayLogger creates a new logging decorator for PaymentGateway
func NewGatewayLogger(gateway driven.PaymentGateway, logger *slog.Logger) driven.PaymentGateway {
	return &GatewayLogger{
		gateway: gateway,
		logger:  logger.With("interface", "PaymentGateway"),
	}
}

func (l *GatewayLogger) CreatePaymentIntent(ctx context.Context, token string, req model.PaymentIntentRequest) (model.PaymentIntent, error) {
	start := time.Now()
	intent, err := l.gateway.CreatePaymentIntent(ctx, token, req)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("CreatePaymentIntent failed",
			"request_id", req.RequestID,
			"merchant_order_id", req.MerchantOrderID,
			"amount", req.Amount,
			"duration", duration,
			"error", err)
		return intent, err
	}

	l.logger.Info("CreatePaymentIntent completed",
		"request_id", req.RequestID,
		"intent_id", intent.ID,
		"amount", req.Amount,
		"currency", req.Currency,
		"duration", duration)

	return intent, nil
}

func (l *GatewayLogger) GetPaymentIntent(ctx context.Context, token, id string) (model.PaymentIntent, error) {
	start := time.Now()
	intent, err := l.gateway.GetPaymentIntent(ctx, token, id)
	duration := time.Since(start)

	if err != nil {
		l.logger.Warn("GetPaymentIntent failed",
			"intent_id", id,
			"duration", duration,
			"error", err)
		return intent, err
	}

	l.logger.Debug("GetPaymentIntent completed",
		"intent_id", id,
		"status", intent.Status,
		"duration", duration)

	return intent, nil
}
