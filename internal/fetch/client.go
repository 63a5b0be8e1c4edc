// Package fetch is the HTTP layer shared by the archive.org content source
// and the thumbnail loader: GET with context, status mapping onto sentinel
// errors, and retries with exponential backoff for transient failures.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phanxgames/magstack"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

// Client performs GET requests with retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	backoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithRetry sets the number of attempts and the delay before the first
// retry. The delay doubles after every attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.backoff = backoff
	}
}

// NewClient returns a client with a 30 second timeout and three attempts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		headers:  map[string]string{"User-Agent": "magstack"},
		attempts: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body of a 200 response to url.
//
// Returns:
//   - [ErrNotFound] for 404
//   - [magstack.ErrNetwork] for transport failures and other statuses;
//     transport failures and 5xx are retried
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, url)
		return err
	})
	return body, err
}

// GetJSON performs Get and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, retryable(fmt.Errorf("%w: %w", magstack.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, retryable(fmt.Errorf("%w: read body: %w", magstack.ErrNetwork, err))
	}
	return body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return retryable(fmt.Errorf("%w: status %d", magstack.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", magstack.ErrNetwork, code)
	}
}
