// Package httphandler is the JSON driving adapter: payment intent creation,
// lookups and the health probe.
package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// maxBodyBytes caps the size of an inbound create request body.
const maxBodyBytes = 64 << 10

// PaymentIntents is the application surface the handler drives.
// *application.PaymentService satisfies it.
type PaymentIntents interface {
	CreatePaymentIntent(ctx context.Context, amount int64) (model.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (model.PaymentIntent, error)
	ListPaymentIntents(ctx context.Context, limit int) ([]model.PaymentIntent, error)
}

// TokenStater reports the credential cache state for the health endpoint.
// *application.TokenCache satisfies it.
type TokenStater interface {
	State() model.TokenState
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	payments PaymentIntents
	tokens   TokenStater
	now      func() time.Time
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(payments PaymentIntents, tokens TokenStater, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		payments: payments,
		tokens:   tokens,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterAPIRoutes registers the JSON endpoints on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /create-payment-intent", h.CreatePaymentIntent)
	mux.HandleFunc("GET /api/v1/payment-intents", h.ListPaymentIntents)
	mux.HandleFunc("GET /api/v1/payment-intents/{id}", h.GetPaymentIntent)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// CreatePaymentIntent creates a payment intent for the body's amount and
// returns its id and client secret. An empty body is treated as {}.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload, err := decodePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := h.payments.CreatePaymentIntent(r.Context(), coerceAmount(payload["amount"]))
	if err != nil {
		h.logger.Error("failed to create payment intent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}

	writeJSON(w, http.StatusOK, CreatePaymentIntentResponse{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	})
}

// decodePayload parses a create request body. Blank bodies and JSON values
// that are not objects yield an empty payload. Trailing data is an error.
func decodePayload(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return obj, nil
}

// GetPaymentIntent returns the current state of one payment intent.
func (h *Handler) GetPaymentIntent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	intent, err := h.payments.GetPaymentIntent(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			writeError(w, http.StatusNotFound, "payment intent not found")
		case errors.Is(err, model.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "invalid payment intent id")
		case errors.Is(err, model.ErrUpstreamRequest), errors.Is(err, model.ErrAuthentication):
			h.logger.Error("failed to get payment intent", "intent_id", id, "error", err)
			writeError(w, http.StatusBadGateway, "payment provider unavailable")
		default:
			h.logger.Error("failed to get payment intent", "intent_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toPaymentIntentResponse(intent))
}

// ListPaymentIntents returns the most recently created intents from the ledger.
func (h *Handler) ListPaymentIntents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	intents, err := h.payments.ListPaymentIntents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list payment intents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PaymentIntentResponse, 0, len(intents))
	for _, pi := range intents {
		resp = append(resp, toPaymentIntentResponse(pi))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response with the token cache state.
// It never triggers a token refresh.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	state := model.TokenStateStale
	if h.tokens != nil {
		state = h.tokens.State()
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Time:       h.now().UTC().Format(time.RFC3339),
		TokenState: string(state),
	})
}
