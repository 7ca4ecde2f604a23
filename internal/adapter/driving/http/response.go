package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CreatePaymentIntentResponse is what the checkout page needs to mount the
// payment element.
type CreatePaymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// PaymentIntentResponse is the JSON representation of a payment intent in
// lookups and listings. The client secret is never included.
type PaymentIntentResponse struct {
	ID              string `json:"id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
	RequestID       string `json:"request_id,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Time       string `json:"time"`
	TokenState string `json:"token_state"`
}

// toPaymentIntentResponse converts a domain PaymentIntent to its JSON response representation.
func toPaymentIntentResponse(pi model.PaymentIntent) PaymentIntentResponse {
	return PaymentIntentResponse{
		ID:              pi.ID,
		Amount:          pi.Amount,
		Currency:        pi.Currency,
		MerchantOrderID: pi.MerchantOrderID,
		RequestID:       pi.RequestID,
		Status:          pi.Status,
		CreatedAt:       formatTime(pi.CreatedAt),
		UpdatedAt:       formatTime(pi.UpdatedAt),
	}
}

// formatTime renders t as RFC 3339 in UTC, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
