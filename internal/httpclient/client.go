// Package httpclient provides a polite HTTP client for third-party hosts:
// requests are spaced out and throttling responses are retried.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client wraps an http.Client to provide rate limiting and retries on throttling.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retryBase  time.Duration

	minRequestInterval time.Duration
	lastRequest        time.Time
	mu                 sync.Mutex
}

// Option customises a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent sent by Get.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetryBase sets the linear backoff step between throttled attempts.
func WithRetryBase(d time.Duration) Option {
	return func(c *Client) { c.retryBase = d }
}

// NewClient creates a new rate-limited HTTP client. A nil httpClient gets a
// pooled transport with DefaultHTTPTimeout.
func NewClient(httpClient *http.Client, minRequestInterval time.Duration, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	c := &Client{
		httpClient:         httpClient,
		minRequestInterval: minRequestInterval,
		userAgent:          constants.DefaultUserAgent,
		retryBase:          constants.DefaultRetryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with the configured User-Agent and returns the response
// only when it is 2xx. Other statuses come back as *StatusError with the
// body already closed.
func (c *Client) Get(ctx context.Context, rawURL string, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Do executes an HTTP request with rate-limiting. 429 and 503 responses are
// retried with backoff, honouring Retry-After; everything else is returned
// to the caller as is.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < constants.DefaultRetryCount; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusServiceUnavailable && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		retryAfter := parseRetryAfter(resp)
		_ = resp.Body.Close()
		lastErr = &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}

		if attempt == constants.DefaultRetryCount-1 {
			break
		}

		backoffWait := time.Duration(attempt+1) * c.retryBase
		if retryAfter > backoffWait {
			backoffWait = retryAfter
		}
		if retryAfter > 0 {
			c.mu.Lock()
			next := time.Now().Add(retryAfter)
			if c.lastRequest.Before(next) {
				c.lastRequest = next
			}
			c.mu.Unlock()
		}

		backoffTimer := time.NewTimer(backoffWait)
		select {
		case <-ctx.Done():
			backoffTimer.Stop()
			return nil, ctx.Err()
		case <-backoffTimer.C:
		}
	}
	return nil, lastErr
}

// wait claims the next request slot and sleeps until it opens.
func (c *Client) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	now := time.Now()
	nextAllowed := c.lastRequest.Add(c.minRequestInterval)
	var waitTime time.Duration
	if now.Before(nextAllowed) {
		waitTime = nextAllowed.Sub(now)
		c.lastRequest = nextAllowed
	} else {
		c.lastRequest = now
	}
	c.mu.Unlock()

	if waitTime <= 0 {
		return nil
	}
	timer := time.NewTimer(waitTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
