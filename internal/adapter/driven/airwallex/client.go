// Package airwallex implements the TokenFetcher and PaymentGateway ports
// against the Airwallex REST API.
package airwallex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/paygate/internal/domain/model"
	"github.com/ericfisherdev/paygate/internal/domain/port/driven"
)

const (
	loginPath        = "/api/v1/authentication/login"
	createIntentPath = "/api/v1/pa/payment_intents/create"
	intentPath       = "/api/v1/pa/payment_intents/"

	// maxResponseBytes caps how much of an upstream body is read.
	maxResponseBytes = 1 << 20
)

// Compile-time interface satisfaction checks.
var (
	_ driven.TokenFetcher   = (*Client)(nil)
	_ driven.PaymentGateway = (*Client)(nil)
)

// Client talks to the payment API. Two http.Clients share the same underlying
// transport:
//  1. http: plain client for POSTs (login, create)
//  2. cached: httpcache transport for GETs, so repeated intent lookups revalidate with ETags
type Client struct {
	http     *http.Client
	cached   *http.Client
	baseURL  string
	clientID string
	apiKey   string
	logger   *slog.Logger
}

// NewClient creates a Client for baseURL authenticating with clientID and
// apiKey. timeout bounds every individual request.
func NewClient(baseURL, clientID, apiKey string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, baseURL, clientID, apiKey, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, clientID, apiKey string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = httpClient.Transport

	return &Client{
		http: httpClient,
		cached: &http.Client{
			Transport: cacheTransport,
			Timeout:   httpClient.Timeout,
		},
		baseURL:  strings.TrimRight(u.String(), "/"),
		clientID: clientID,
		apiKey:   apiKey,
		logger:   logger,
	}, nil
}

// loginResponse mirrors the authentication endpoint body. ExpiresAt is a
// pointer so a missing field can be told apart from an empty one.
type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt *string `json:"expires_at"`
}

// FetchToken exchanges the client ID and API key for a bearer token. An
// expires_at that cannot be parsed yields a token with a zero ExpiresAt, which
// the cache never treats as fresh.
func (c *Client) FetchToken(ctx context.Context) (model.AccessToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, nil)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("%w: build login request: %w", model.ErrAuthentication, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("%w: login request: %w", model.ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("%w: read login response: %w", model.ErrAuthentication, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.AccessToken{}, fmt.Errorf("%w: login returned %d%s", model.ErrAuthentication, resp.StatusCode, describeAPIError(body))
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return model.AccessToken{}, fmt.Errorf("%w: decode login response: %w", model.ErrAuthentication, err)
	}
	if login.Token == "" {
		return model.AccessToken{}, fmt.Errorf("%w: login response has no token", model.ErrAuthentication)
	}
	if login.ExpiresAt == nil || *login.ExpiresAt == "" {
		return model.AccessToken{}, fmt.Errorf("%w: login response has no expires_at", model.ErrAuthentication)
	}

	expiresAt, err := parseExpiry(*login.ExpiresAt)
	if err != nil {
		c.logger.Warn("unparsable token expiry", "expires_at", *login.ExpiresAt, "error", err)
	}

	return model.AccessToken{Value: login.Token, ExpiresAt: expiresAt}, nil
}

// createIntentRequest is the JSON body for the create endpoint.
type createIntentRequest struct {
	RequestID       string `json:"request_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
	CaptureMethod   string `json:"capture_method,omitempty"`
}

// intentResponse is the subset of the payment intent object the service uses.
type intentResponse struct {
	ID              string  `json:"id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	MerchantOrderID string  `json:"merchant_order_id"`
	RequestID       string  `json:"request_id"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// CreatePaymentIntent creates a payment intent upstream.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string, in model.PaymentIntentRequest) (model.PaymentIntent, error) {
	payload, err := json.Marshal(createIntentRequest{
		RequestID:       in.RequestID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		MerchantOrderID: in.MerchantOrderID,
		CaptureMethod:   in.CaptureMethod,
	})
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: encode create request: %w", model.ErrUpstreamRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createIntentPath, bytes.NewReader(payload))
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: build create request: %w", model.ErrUpstreamRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: create request: %w", model.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: read create response: %w", model.ErrUpstreamRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.PaymentIntent{}, fmt.Errorf("%w: create returned %d%s", model.ErrUpstreamRequest, resp.StatusCode, describeAPIError(body))
	}

	intent, err := c.decodeIntent(body)
	if err != nil {
		return model.PaymentIntent{}, err
	}

	c.logger.Debug("payment intent created upstream", "intent_id", intent.ID, "request_id", in.RequestID)
	return intent, nil
}

// GetPaymentIntent retrieves a payment intent by ID.
func (c *Client) GetPaymentIntent(ctx context.Context, token, id string) (model.PaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+intentPath+url.PathEscape(id), nil)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: build get request: %w", model.ErrUpstreamRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.cached.Do(req)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: get request: %w", model.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: read get response: %w", model.ErrUpstreamRequest, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return model.PaymentIntent{}, fmt.Errorf("payment intent %s: %w", id, model.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.PaymentIntent{}, fmt.Errorf("%w: get returned %d%s", model.ErrUpstreamRequest, resp.StatusCode, describeAPIError(body))
	}

	if resp.Header.Get(httpcache.XFromCache) != "" {
		c.logger.Debug("payment intent served from cache", "intent_id", id)
	}

	return c.decodeIntent(body)
}

func (c *Client) decodeIntent(body []byte) (model.PaymentIntent, error) {
	var r intentResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return model.PaymentIntent{}, fmt.Errorf("%w: decode payment intent: %w", model.ErrUpstreamRequest, err)
	}
	if r.ID == "" {
		return model.PaymentIntent{}, fmt.Errorf("%w: payment intent response has no id", model.ErrUpstreamRequest)
	}

	intent := model.PaymentIntent{
		ID:              r.ID,
		ClientSecret:    r.ClientSecret,
		Amount:          int64(r.Amount),
		Currency:        r.Currency,
		MerchantOrderID: r.MerchantOrderID,
		RequestID:       r.RequestID,
		Status:          r.Status,
	}
	// Timestamps are informational; a bad value is dropped rather than failing the call.
	if t, err := parseExpiry(r.CreatedAt); err == nil {
		intent.CreatedAt = t
	}
	if t, err := parseExpiry(r.UpdatedAt); err == nil {
		intent.UpdatedAt = t
	}

	return intent, nil
}

// apiError is the error body the API returns on 4xx/5xx.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// describeAPIError formats an upstream error body as a suffix for error
// messages. Returns "" when the body is not an API error object.
func describeAPIError(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil || (e.Code == "" && e.Message == "") {
		return ""
	}
	return fmt.Sprintf(" (%s: %s)", e.Code, e.Message)
}

// timeLayouts covers RFC 3339 and the "+0000" offset form the API uses.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
}

// parseExpiry parses an ISO-8601 timestamp. Returns the zero time and an
// error when no layout matches.
func parseExpiry(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
