package application_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// --- Mock implementations ---

// mockFetcher returns the queued results in order, repeating the last one.
// When release is non-nil every call blocks until it is closed.
type mockFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

type fetchResult struct {
	token model.AccessToken
	err   error
}

func (m *mockFetcher) FetchToken(ctx context.Context) (model.AccessToken, error) {
	n := int(m.calls.Add(1))

	if m.started != nil && n == 1 {
		close(m.started)
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return model.AccessToken{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	idx := n - 1
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	r := m.results[idx]
	return r.token, r.err
}

func (m *mockFetcher) Calls() int {
	return int(m.calls.Load())
}

// stubTokens is a TokenSource returning a fixed token or error.
type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) Token(_ context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

type mockGateway struct {
	created    model.PaymentIntent
	createErr  error
	got        model.PaymentIntent
	getErr     error
	lastToken  string
	lastCreate model.PaymentIntentRequest
	lastGetID  string
}

func (m *mockGateway) CreatePaymentIntent(_ context.Context, token string, req model.PaymentIntentRequest) (model.PaymentIntent, error) {
	m.lastToken = token
	m.lastCreate = req
	return m.created, m.createErr
}

func (m *mockGateway) GetPaymentIntent(_ context.Context, token, id string) (model.PaymentIntent, error) {
	m.lastToken = token
	m.lastGetID = id
	return m.got, m.getErr
}

type mockIntentStore struct {
	saved     map[string]model.PaymentIntent
	saveErr   error
	getErr    error
	listErr   error
	lastLimit int
}

func newMockIntentStore() *mockIntentStore {
	return &mockIntentStore{saved: make(map[string]model.PaymentIntent)}
}

func (m *mockIntentStore) Save(_ context.Context, intent model.PaymentIntent) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[intent.ID] = intent
	return nil
}

func (m *mockIntentStore) GetByID(_ context.Context, id string) (*model.PaymentIntent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	intent, ok := m.saved[id]
	if !ok {
		return nil, nil
	}
	return &intent, nil
}

func (m *mockIntentStore) ListRecent(_ context.Context, limit int) ([]model.PaymentIntent, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.PaymentIntent, 0, len(m.saved))
	for _, intent := range m.saved {
		out = append(out, intent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockIntentStore) UpdateStatus(_ context.Context, id, status string) error {
	intent, ok := m.saved[id]
	if !ok {
		return model.ErrNotFound
	}
	intent.Status = status
	m.saved[id] = intent
	return nil
}
