package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"reelcache/internal/logging"
)

const maxErrorBody = 4 << 10

// Client provides rate-limited, retrying access to the TMDB v3 API.
// It is safe for concurrent use; the limiter is shared by all callers.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the total number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = uint(attempts)
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 4),
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		logger:     logging.NewComponentLogger(nil, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Language returns the default request language.
func (c *Client) Language() string { return c.language }

// Fetch performs a GET against path (relative to the API root) and decodes
// the JSON body into out. A "language" parameter that is present but empty is
// dropped; an absent one defaults to the client language. Transport errors,
// 429 and 5xx responses are retried with exponential backoff. Every failure is
// returned as *Error.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values, out any) error {
	path = strings.TrimLeft(path, "/")
	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}
	if _, ok := query["language"]; !ok {
		if c.language != "" {
			query.Set("language", c.language)
		}
	} else if query.Get("language") == "" {
		query.Del("language")
	}
	query.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "/" + path + "?" + query.Encode()

	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(&Error{Path: path, Message: err.Error(), Err: err})
			}
			return c.do(ctx, path, endpoint, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var tmdbErr *Error
			return errors.As(err, &tmdbErr) && tmdbErr.Temporary()
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying tmdb request",
				logging.String("path", path),
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
	)
	if err == nil {
		return nil
	}
	var tmdbErr *Error
	if errors.As(err, &tmdbErr) {
		return tmdbErr
	}
	// retry.Context surfaces the context error directly.
	return &Error{Path: path, Message: err.Error(), Err: err}
}

func (c *Client) do(ctx context.Context, path, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(&Error{Path: path, Message: fmt.Sprintf("build request: %v", err), Err: err})
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Unrecoverable(&Error{Path: path, Message: ctx.Err().Error(), Err: ctx.Err()})
		}
		return &Error{Path: path, Message: fmt.Sprintf("execute request (latency=%v): %v", latency, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Status: resp.StatusCode, Path: path, Message: statusMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Path: path, Message: fmt.Sprintf("%v: %v", errDecode, err), Err: errDecode}
	}
	c.logger.Debug("tmdb request complete", logging.String("path", path), logging.Duration("latency", latency))
	return nil
}

func statusMessage(body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return strings.TrimSpace(string(body))
}
