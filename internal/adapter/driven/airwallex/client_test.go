package airwallex_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/paygate/internal/adapter/driven/airwallex"
	"github.com/ericfisherdev/paygate/internal/application"
	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *airwallex.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := airwallex.NewClientWithHTTPClient(server.Client(), server.URL, "client-123", "key-456", slog.Default())
	require.NoError(t, err)

	return client
}

func writeJSONBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientWithHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := airwallex.NewClientWithHTTPClient(http.DefaultClient, "/not/absolute", "id", "key", nil)
	require.Error(t, err)
}

func TestFetchToken_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/authentication/login", r.URL.Path)
		assert.Equal(t, "client-123", r.Header.Get("x-client-id"))
		assert.Equal(t, "key-456", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		writeJSONBody(w, http.StatusCreated, map[string]string{
			"token":      "tok_A",
			"expires_at": "2026-03-01T12:30:00+0000",
		})
	})

	client := newTestClient(t, handler)
	tok, err := client.FetchToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok_A", tok.Value)
	assert.True(t, tok.ExpiresAt.Equal(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)))
}

func TestFetchToken_ExpiryFormats(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt string
		wantZero  bool
	}{
		{name: "rfc3339 zulu", expiresAt: "2026-03-01T12:30:00Z"},
		{name: "rfc3339 offset", expiresAt: "2026-03-01T13:30:00+01:00"},
		{name: "compact offset", expiresAt: "2026-03-01T12:30:00+0000"},
		{name: "fractional seconds", expiresAt: "2026-03-01T12:30:00.000+0000"},
		{name: "not a timestamp", expiresAt: "in thirty minutes", wantZero: true},
		{name: "date only", expiresAt: "2026-03-01", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]string{"token": "tok", "expires_at": tt.expiresAt})
			}))

			tok, err := client.FetchToken(context.Background())

			require.NoError(t, err)
			assert.Equal(t, "tok", tok.Value)
			if tt.wantZero {
				assert.True(t, tok.ExpiresAt.IsZero())
			} else {
				assert.True(t, tok.ExpiresAt.Equal(want), "got %s", tok.ExpiresAt)
			}
		})
	}
}

func TestFetchToken_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusUnauthorized, map[string]string{"code": "credentials_invalid", "message": "bad key"})
			},
		},
		{
			name: "server error without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"token":`))
			},
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]string{"expires_at": "2026-03-01T12:30:00Z"})
			},
		},
		{
			name: "missing expires_at",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]string{"token": "tok"})
			},
		},
		{
			name: "empty expires_at",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]string{"token": "tok", "expires_at": ""})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			tok, err := client.FetchToken(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrAuthentication)
			assert.Equal(t, model.AccessToken{}, tok)
		})
	}
}

func TestFetchToken_UnauthorizedIncludesAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONBody(w, http.StatusUnauthorized, map[string]string{"code": "credentials_invalid", "message": "bad key"})
	}))

	_, err := client.FetchToken(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "credentials_invalid")
}

func TestFetchToken_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := airwallex.NewClientWithHTTPClient(server.Client(), server.URL, "id", "key", slog.Default())
	require.NoError(t, err)
	server.Close()

	_, err = client.FetchToken(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAuthentication)
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/pa/payment_intents/create", r.URL.Path)
		assert.Equal(t, "Bearer tok_A", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "req-1", body["request_id"])
		assert.Equal(t, float64(89900), body["amount"])
		assert.Equal(t, "EUR", body["currency"])
		assert.Equal(t, "order-1", body["merchant_order_id"])
		assert.Equal(t, "AUTOMATIC", body["capture_method"])

		writeJSONBody(w, http.StatusCreated, map[string]any{
			"id":                "int_123",
			"client_secret":     "secret_abc",
			"amount":            89900,
			"currency":          "EUR",
			"merchant_order_id": "order-1",
			"request_id":        "req-1",
			"status":            "REQUIRES_PAYMENT_METHOD",
			"created_at":        "2026-03-01T12:00:00+0000",
		})
	})

	client := newTestClient(t, handler)
	intent, err := client.CreatePaymentIntent(context.Background(), "tok_A", model.PaymentIntentRequest{
		Amount:          89900,
		Currency:        "EUR",
		MerchantOrderID: "order-1",
		RequestID:       "req-1",
		CaptureMethod:   model.CaptureMethodAutomatic,
	})

	require.NoError(t, err)
	assert.Equal(t, "int_123", intent.ID)
	assert.Equal(t, "secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(89900), intent.Amount)
	assert.Equal(t, "REQUIRES_PAYMENT_METHOD", intent.Status)
	assert.True(t, intent.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestCreatePaymentIntent_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "validation error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusBadRequest, map[string]string{"code": "validation_error", "message": "amount"})
			},
		},
		{
			name: "expired token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "missing id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]string{"client_secret": "cs"})
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>gateway timeout</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.CreatePaymentIntent(context.Background(), "tok", model.PaymentIntentRequest{Amount: 1, Currency: "EUR"})

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrUpstreamRequest)
		})
	}
}

func TestGetPaymentIntent_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/pa/payment_intents/int_123", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		writeJSONBody(w, http.StatusOK, map[string]any{
			"id":         "int_123",
			"amount":     500,
			"currency":   "EUR",
			"status":     "SUCCEEDED",
			"updated_at": "2026-03-01T12:05:00Z",
		})
	})

	client := newTestClient(t, handler)
	intent, err := client.GetPaymentIntent(context.Background(), "tok", "int_123")

	require.NoError(t, err)
	assert.Equal(t, "int_123", intent.ID)
	assert.Equal(t, "SUCCEEDED", intent.Status)
	assert.Equal(t, int64(500), intent.Amount)
	assert.True(t, intent.CreatedAt.IsZero())
	assert.False(t, intent.UpdatedAt.IsZero())
}

func TestGetPaymentIntent_RevalidatesWithETag(t *testing.T) {
	var full, revalidated atomic.Int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			revalidated.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		full.Add(1)
		w.Header().Set("ETag", `"v1"`)
		writeJSONBody(w, http.StatusOK, map[string]any{"id": "int_123", "status": "SUCCEEDED"})
	})

	client := newTestClient(t, handler)

	for range 3 {
		intent, err := client.GetPaymentIntent(context.Background(), "tok", "int_123")
		require.NoError(t, err)
		assert.Equal(t, "SUCCEEDED", intent.Status)
	}

	assert.Equal(t, int32(1), full.Load())
	assert.Equal(t, int32(2), revalidated.Load())
}

func TestGetPaymentIntent_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONBody(w, http.StatusNotFound, map[string]string{"code": "resource_not_found"})
	}))

	_, err := client.GetPaymentIntent(context.Background(), "tok", "int_missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.False(t, errors.Is(err, model.ErrUpstreamRequest))
}

func TestGetPaymentIntent_EscapesID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/pa/payment_intents/a%2Fb", r.URL.EscapedPath())
		writeJSONBody(w, http.StatusOK, map[string]string{"id": "a/b"})
	}))

	intent, err := client.GetPaymentIntent(context.Background(), "tok", "a/b")

	require.NoError(t, err)
	assert.Equal(t, "a/b", intent.ID)
}

// TestTokenCache_WithClient exercises the cache against the real adapter: a
// token that expires in 30 minutes is fetched once for many calls.
func TestTokenCache_WithClient(t *testing.T) {
	var logins atomic.Int32
	expiresAt := time.Now().Add(30 * time.Minute).UTC().Format("2006-01-02T15:04:05-0700")

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		logins.Add(1)
		writeJSONBody(w, http.StatusCreated, map[string]string{"token": "tok_A", "expires_at": expiresAt})
	}))
	cache := application.NewTokenCache(client, 5*time.Second, slog.Default())

	for range 5 {
		tok, err := cache.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok_A", tok)
	}

	assert.Equal(t, int32(1), logins.Load())
}

// TestTokenCache_WithClientUnparsableExpiry checks that a garbage expires_at
// makes every call hit the login endpoint.
func TestTokenCache_WithClientUnparsableExpiry(t *testing.T) {
	var logins atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		logins.Add(1)
		writeJSONBody(w, http.StatusCreated, map[string]string{"token": "tok_A", "expires_at": "soon"})
	}))
	cache := application.NewTokenCache(client, 5*time.Second, slog.Default())

	for range 3 {
		_, err := cache.Token(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), logins.Load())
}
