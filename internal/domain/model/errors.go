package model

import "errors"

var (
	// ErrAuthentication is returned when the token exchange fails or yields an
	// unusable payload.
	ErrAuthentication = errors.New("authentication failed")

	// ErrUpstreamRequest is returned when a payment API call fails after a
	// valid token was obtained.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrNotFound is returned when a requested asset or payment intent does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("invalid request")
)
