package interfaces

import (
	"context"
	"net/url"
)

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP GET requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs one GET request with the given query parameters and headers.
	// Returns the response body, or a FetchError for transport failures and non-2xx responses.
	Get(ctx context.Context, url string, params url.Values, headers map[string]string) ([]byte, error)
}
