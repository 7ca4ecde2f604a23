package driven

import (
	"context"

	"github.com/ericfisherdev/paygate/internal/domain/model"
)

// TokenFetcher defines the driven port for exchanging long-lived API
// credentials for a short-lived bearer token.
type TokenFetcher interface {
	// FetchToken performs a single authentication call. Every failure is
	// reported as model.ErrAuthentication. Implementations do not retry.
	FetchToken(ctx context.Context) (model.AccessToken, error)
}
