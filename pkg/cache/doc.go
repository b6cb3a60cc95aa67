// Package cache provides response caching for the Unity Connection admin
// API with a Redis backend.
//
// The cache manager keeps repeat audit runs cheap:
//
// - Expires headers from the server drive entry TTLs
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// The cache holds raw HTTP responses only; the report pipeline's own
// schedule-name lookups stay process-local and are rebuilt every run.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.CacheKey{
//		Endpoint: "/handlers/callhandlers",
//		QueryParams: url.Values{"rowsPerPage": []string{"200"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API
//	}
//
// # HTTP Response Caching
//
//	// Convert HTTP response to cache entry
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	err = manager.Set(ctx, key, entry)
package cache
