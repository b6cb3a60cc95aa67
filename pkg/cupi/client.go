// Package cupi provides the HTTP client for the Cisco Unity Connection
// provisioning API (CUPI) with basic auth, retry, optional response
// caching, and error classification.
package cupi

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unity-tools/handler-report/pkg/cache"
	"github.com/unity-tools/handler-report/pkg/ratelimit"
)

// Prometheus metrics for client operations.
var (
	cupiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cupi_requests_total",
		Help: "Total CUPI requests by endpoint and status",
	}, []string{"endpoint", "status"})

	cupiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cupi_request_duration_seconds",
		Help:    "CUPI request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	cupiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cupi_errors_total",
		Help: "Total CUPI errors by class",
	}, []string{"class"})
)

// Client is the admin API client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	pacer      *ratelimit.Pacer
	config     Config
	retry      RetryConfig
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the vmrest base, e.g. "https://unity.example.com/vmrest"
	BaseURL string

	// Basic auth credentials
	Username string
	Password string

	// Redis client for the optional response cache (nil disables caching)
	Redis *redis.Client

	// InsecureTLS skips certificate verification. Unity Connection nodes
	// commonly run self-signed certificates.
	InsecureTLS bool

	// Timeout per HTTP request
	Timeout time.Duration

	// PaceInterval is the minimum delay between requests (0 disables pacing)
	PaceInterval time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, username, password string) Config {
	return Config{
		BaseURL:        baseURL,
		Username:       username,
		Password:       password,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new CUPI client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := log.With().Str("component", "cupi-client").Logger()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.InitialBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cache:  cacheManager,
		pacer:  ratelimit.NewPacer(cfg.PaceInterval),
		config: cfg,
		retry:  retry,
		logger: logger,
	}, nil
}

// Do performs an HTTP request with pacing, caching, retry, and error
// classification. A non-2xx outcome is returned as an *APIError; the
// response is only returned on success (or a cache-served 304).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		cupiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Pace the request
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	// Step 2: Check cache
	var cachedEntry *cache.CacheEntry
	var cacheKey cache.CacheKey
	if c.cache != nil {
		cacheKey = cache.CacheKey{
			Endpoint:    endpoint,
			QueryParams: req.URL.Query(),
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry

		if cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 3: Auth and content negotiation
	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Accept", "application/xml")

	// Step 4: Execute with retry
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing CUPI request")

	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.retry, c.logger, func() (ErrorClass, error) {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req)

		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			cupiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			cupiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, &APIError{
				ErrorClass: ErrorClassNetwork,
				Endpoint:   endpoint,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		// 304 Not Modified is handled after the retry loop
		if resp.StatusCode == http.StatusNotModified {
			return "", nil
		}

		if resp.StatusCode >= 400 {
			errClass := classifyError(resp, nil)
			cupiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			cupiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("CUPI request error")

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Endpoint:   endpoint,
				Message:    resp.Status,
			}
			resp.Body.Close()
			return errClass, apiErr
		}

		cupiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return "", nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 5: Serve 304 from cache
	if resp.StatusCode == http.StatusNotModified {
		cupiRequestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")

		if c.cache != nil && cachedEntry != nil {
			if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
				if newExpires, err := http.ParseTime(expiresStr); err == nil {
					if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
						c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
					}
				}
			}
			resp.Body.Close()
			return cache.EntryToResponse(cachedEntry), nil
		}

		// 304 without a cached entry should not happen; treat as a
		// server error so the caller sees a classified failure.
		resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Endpoint:   endpoint,
			Message:    "304 response without cached entry",
		}
	}

	// Step 6: Update cache on success
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request against a vmrest path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// FetchPage implements pagination.PageFetcher: it requests one page of a
// paginated endpoint and returns the response body for streaming parse.
func (c *Client) FetchPage(ctx context.Context, endpoint string, rowsPerPage, offset int) (io.ReadCloser, error) {
	q := url.Values{}
	q.Set("rowsPerPage", strconv.Itoa(rowsPerPage))
	q.Set("offset", strconv.Itoa(offset))

	resp, err := c.Get(ctx, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
