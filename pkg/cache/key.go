package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Endpoint is the vmrest endpoint path (e.g., "/handlers/callhandlers")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"rowsPerPage": "200", "offset": "0"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: cupi:endpoint:query1=val1:query2=val2
//
// Example:
//
//	cupi:handlers/callhandlers:offset=0:rowsPerPage=200
func (k CacheKey) String() string {
	parts := []string{"cupi"}

	// Add endpoint (normalize path)
	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add query params (sorted for determinism)
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
