package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/b3monitor/pkg/logger"
	"github.com/wonny/b3monitor/pkg/redis"
)

// ErrServerStatus marks a 5xx/429 answer; it counts as a breaker failure
var ErrServerStatus = errors.New("upstream server error")

// Client is an HTTP client wrapper with retry, rate limiting, a circuit
// breaker and logging
// ⭐ SSOT: every outbound HTTP request goes through this client
type Client struct {
	httpClient   *http.Client
	logger       *logger.Logger
	retryConfig  RetryConfig
	headers      http.Header
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	rateLimiter  *redis.RateLimiter
	rateLimitCfg *redis.RateLimitConfig
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// New creates a new HTTP client
// ⭐ SSOT: http.Client instances are created here only
func New(log *logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		headers:    make(http.Header),
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithHeader adds a header sent on every request
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// WithRequestsPerSecond installs a local token bucket limiter
func (c *Client) WithRequestsPerSecond(rps int) *Client {
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return c
}

// WithRateLimiter sets the shared (Redis) rate limiter for this client
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.rateLimiter = limiter
	c.rateLimitCfg = &cfg
	return c
}

// WithCircuitBreaker trips after consecutive upstream failures and
// fails fast until timeout has passed
func (c *Client) WithCircuitBreaker(name string, consecutiveFailures uint32, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(settings)
	return c
}

// BreakerState reports the breaker state, "none" without a breaker
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "none"
	}
	return c.breaker.State().String()
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.do(req)
}

// do executes the request with rate limiting, retry logic and logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	startTime := time.Now()
	url := req.URL.Redacted()

	c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    url,
	}).Debug("HTTP request started")

	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.attempt(req)
		if resp != nil && errors.Is(err, ErrServerStatus) {
			err = nil
		}
	}

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      req.Method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// attempt runs one request through the limiters and the breaker.
// A retryable status comes back as (resp, ErrServerStatus).
func (c *Client) attempt(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}
	if c.rateLimiter != nil && c.rateLimitCfg != nil {
		if err := c.rateLimiter.Wait(ctx, *c.rateLimitCfg); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	call := func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if IsRetryableError(resp.StatusCode) {
			return resp, fmt.Errorf("%w: status %d", ErrServerStatus, resp.StatusCode)
		}
		return resp, nil
	}

	var out interface{}
	var err error
	if c.breaker != nil {
		out, err = c.breaker.Execute(call)
	} else {
		out, err = call()
	}

	resp, _ := out.(*http.Response)
	return resp, err
}

// doWithRetry executes the request with exponential backoff retry.
// The last retryable response is returned to the caller without error
// so it can read the upstream status.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	delay := c.retryConfig.InitialDelay

	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(req)
		if err == nil {
			return resp, nil
		}

		retryable := errors.Is(err, ErrServerStatus) || (resp == nil && !isBreakerOpen(err) && req.Context().Err() == nil)
		if !retryable || attempt == c.retryConfig.MaxRetries {
			if resp != nil && errors.Is(err, ErrServerStatus) {
				return resp, nil
			}
			return nil, err
		}

		if resp != nil {
			resp.Body.Close()
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.Redacted(),
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
