package model

import "time"

// RefreshSkew is how long before expiry a cached token stops being handed out.
const RefreshSkew = 5 * time.Minute

// TokenState describes whether a cached token can be used as-is.
type TokenState string

const (
	TokenStateFresh TokenState = "fresh"
	TokenStateStale TokenState = "stale"
)

// AccessToken is a short-lived bearer token and the instant it expires.
// The zero value represents an empty cache.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// IsFresh reports whether the token is present and expires more than
// RefreshSkew after now. A zero ExpiresAt is never fresh.
func (t AccessToken) IsFresh(now time.Time) bool {
	return t.Value != "" && t.ExpiresAt.Sub(now) > RefreshSkew
}

// State maps IsFresh onto a TokenState.
func (t AccessToken) State(now time.Time) TokenState {
	if t.IsFresh(now) {
		return TokenStateFresh
	}
	return TokenStateStale
}
