package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	figmaAPIBase = "https://api.figma.com/v1"

	// Version is reported in the User-Agent header and by the CLI.
	Version = "0.3.0"
)

// Client represents a Figma API client with configured HTTP settings for reliable communication
// with the Figma API. It includes retry logic, request pacing and optimized transport settings.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	backoff     time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root (used by tests and proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces requests to at most r per second with the given burst.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

// WithRetry sets the attempt count and the base backoff between attempts.
// The wait before attempt n+1 is n*backoff.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		c.backoff = backoff
	}
}

// NewClient creates a new Figma API client with the provided personal access token.
// The client is configured with connection pooling, disabled HTTP/2 (for large file stability),
// a 2-minute timeout and a request pace that stays under Figma's per-token rate limit.
func NewClient(accessToken string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		// Disable HTTP/2 to avoid stream errors with large responses
		ForceAttemptHTTP2: false,
	}

	c := &Client{
		accessToken: accessToken,
		baseURL:     figmaAPIBase,
		httpClient: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		maxRetries: 3,
		backoff:    2 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExtractFileKey extracts the unique file identifier from a Figma URL.
// Supports both /file/ and /design/ URL patterns (e.g., figma.com/file/ABC123/Design-Name).
// Returns an error if the URL format is invalid or if the URL doesn't match the expected Figma domain pattern.
func ExtractFileKey(figmaURL string) (string, error) {
	// Anchored to ensure the entire URL matches the expected pattern and prevent bypass attacks.
	re := regexp.MustCompile(`^https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)(?:/|\?|$)`)
	matches := re.FindStringSubmatch(figmaURL)

	if len(matches) < 2 {
		return "", errors.New("invalid Figma URL format: must be a valid figma.com URL with /file/ or /design/ path")
	}

	return matches[1], nil
}

// GetLocalVariables retrieves every local variable and variable collection of a file.
// Requests are retried (up to the configured attempt count) with linear backoff on
// transport errors, 429 (rate limit) and 5xx (server error) responses.
func (c *Client) GetLocalVariables(ctx context.Context, fileKey string) (*LocalVariablesResponse, error) {
	url := fmt.Sprintf("%s/files/%s/variables/local", c.baseURL, fileKey)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp LocalVariablesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}
	if resp.Error {
		return nil, errors.Newf("API reported an error (status %d)", resp.Status)
	}

	return &resp, nil
}

// get performs an authenticated GET with retry and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "rate limiter")
			}
		}

		body, retry, err := c.do(ctx, url, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retry || attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "request cancelled")
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}

	return nil, lastErr
}

// do executes one attempt. The boolean result reports whether the failure is retryable.
func (c *Client) do(ctx context.Context, url string, attempt int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("X-Figma-Token", c.accessToken)
	req.Header.Set("User-Agent", "figma-tokens/"+Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, errors.Wrapf(err, "attempt %d failed to execute request", attempt)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrapf(err, "attempt %d failed to read response body", attempt)
	}

	return body, false, nil
}
