package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bitebook/backend/internal/domain"
	"github.com/bitebook/backend/internal/metrics"
)

const (
	DefaultBaseURL        = "https://places.googleapis.com/v1/places"
	DefaultSearchURL      = "https://places.googleapis.com/v1/places:searchText"
	DefaultConnectTimeout = 3 * time.Second
	DefaultReadTimeout    = 5 * time.Second
	DefaultMaxAttempts    = 3

	maxResponseBytes = 1 << 20
)

// Config holds the provider client settings
type Config struct {
	APIKey    string
	BaseURL   string
	SearchURL string
	// SearchSuffix is appended to every text query, e.g. a city name to bias results
	SearchSuffix   string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// RateLimit is requests per second; zero disables limiting
	RateLimit   float64
	MaxAttempts int
}

// Client handles communication with the Places API
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	searchURL    string
	searchSuffix string
	rateLimiter  *rate.Limiter
	maxAttempts  int
	backoffBase  time.Duration
	logger       *zap.Logger
}

// NewClient creates a new Places API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 5)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.ReadTimeout

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		searchURL:    cfg.SearchURL,
		searchSuffix: strings.TrimSpace(cfg.SearchSuffix),
		rateLimiter:  limiter,
		maxAttempts:  cfg.MaxAttempts,
		backoffBase:  500 * time.Millisecond,
		logger:       logger.Named("places"),
	}
}

// FetchByID retrieves the details of a single place by its provider id
func (c *Client) FetchByID(ctx context.Context, providerID string) (*domain.ProviderDetails, error) {
	const op = "fetch_by_id"
	if err := c.checkCredentials(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(providerID) == "" {
		return nil, fmt.Errorf("%w: empty provider id", domain.ErrInvalidArgument)
	}

	reqURL := c.baseURL + "/" + url.PathEscape(providerID)
	body, err := c.execute(ctx, op, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Goog-FieldMask", strings.Join(detailFields, ","))
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var place placeResponse
	if err := json.Unmarshal(body, &place); err != nil {
		metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: decode place %s: %v", domain.ErrProviderUnavailable, providerID, err)
	}

	metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeOK).Inc()
	details := MapToProviderDetails(&place)
	return &details, nil
}

// SearchByName runs a free-text search and returns matches in provider rank order.
// An empty slice means the provider found nothing.
func (c *Client) SearchByName(ctx context.Context, text string) ([]domain.ProviderDetails, error) {
	const op = "search_by_name"
	if err := c.checkCredentials(op); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(text)
	if c.searchSuffix != "" {
		query = query + " " + c.searchSuffix
	}
	payload, err := json.Marshal(searchTextRequest{TextQuery: query})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	fieldMask := make([]string, len(detailFields))
	for i, f := range detailFields {
		fieldMask[i] = "places." + f
	}

	body, err := c.execute(ctx, op, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-FieldMask", strings.Join(fieldMask, ","))
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp searchTextResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrProviderUnavailable, err)
	}

	results := make([]domain.ProviderDetails, 0, len(resp.Places))
	for i := range resp.Places {
		results = append(results, MapToProviderDetails(&resp.Places[i]))
	}

	c.logger.Debug("search completed", zap.String("query", query), zap.Int("results", len(results)))
	metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeOK).Inc()
	return results, nil
}

// checkCredentials fails fast before any network I/O when no key is configured
func (c *Client) checkCredentials(op string) error {
	if c.apiKey == "" {
		metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeNoAPIKey).Inc()
		return domain.ErrProviderUnauthenticated
	}
	return nil
}

// execute sends the request built by newRequest, retrying transient failures
// with exponential backoff, and returns the response body of a 200 reply.
func (c *Client) execute(ctx context.Context, op string, newRequest func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeRateLimited).Inc()
			return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrProviderUnavailable, err)
		}

		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("User-Agent", "Bitebook/1.0")

		body, status, err := c.do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
				return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, ctx.Err())
			}
			c.logger.Warn("request failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusNotFound:
			metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeNotFound).Inc()
			return nil, domain.ErrNoProviderMatch
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnauthenticated, status)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			c.logger.Warn("provider error", zap.String("op", op), zap.Int("attempt", attempt),
				zap.Int("status", status), zap.ByteString("body", truncate(body, 256)))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, status)
		default:
			metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrProviderUnavailable, status, truncate(body, 256))
		}

		if attempt < c.maxAttempts {
			if err := sleepWithContext(ctx, c.exponentialBackoff(attempt)); err != nil {
				metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
				return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
			}
		}
	}

	metrics.ProviderRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
	c.logger.Error("all attempts failed", zap.String("op", op), zap.Error(lastErr))
	return nil, lastErr
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// exponentialBackoff returns the wait before the next attempt: base, 2*base, 4*base...
func (c *Client) exponentialBackoff(attempt int) time.Duration {
	return c.backoffBase * time.Duration(1<<(attempt-1))
}

// sleepWithContext blocks for d, returning early if the context is cancelled
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

var _ domain.PlaceProvider = (*Client)(nil)
