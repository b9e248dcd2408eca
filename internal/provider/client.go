package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"whorep/internal/metrics"
)

const maxBodyBytes = 8 << 20

// Client carries what every upstream provider client shares: an HTTP client,
// a request rate limiter and metrics.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRate limits requests to r per second with the given burst. A
// non-positive r disables limiting.
func WithRate(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Client named after the provider it talks to.
func NewClient(name string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second/2), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// Wait blocks until the rate limiter allows another request.
func (c *Client) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// GetJSON performs a rate-limited GET of base?query and decodes the JSON body
// into out. Every failure is returned as an *Error.
func (c *Client) GetJSON(ctx context.Context, base string, query url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(CategoryOf(err))
		}
		c.metrics.ObserveProvider(c.name, outcome, start)
	}()

	if err := c.Wait(ctx); err != nil {
		return NewError(CategoryRateLimited, c.name, "rate limiter wait", err)
	}

	target := base
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return NewError(CategoryInternal, c.name, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return NewError(CategoryTimeout, c.name, "request timed out", err)
		}
		return NewError(CategoryOutage, c.name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return NewError(categoryForStatus(resp.StatusCode), c.name, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return NewError(CategoryBadData, c.name, "decode response", err)
	}
	return nil
}

func categoryForStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status >= 500:
		return CategoryOutage
	default:
		return CategoryBadData
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
