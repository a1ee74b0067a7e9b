package brapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wonny/b3monitor/internal/contracts"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/config"
	"github.com/wonny/b3monitor/pkg/httputil"
	"github.com/wonny/b3monitor/pkg/logger"
	"github.com/wonny/b3monitor/pkg/redis"
)

var (
	// ErrNoSymbols is returned when the ticker list comes back empty
	ErrNoSymbols = errors.New("brapi: no symbols")
	// ErrUpstream wraps non-200 answers and malformed bodies
	ErrUpstream = errors.New("brapi: upstream error")
)

// maxSymbolsPerRequest caps the comma list of one quote call
const maxSymbolsPerRequest = 20

// Client talks to brapi.dev
// ⭐ SSOT: every brapi call goes through this client
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	metrics    *telemetry.Metrics

	baseURL   string
	modules   []string
	listLimit int
	quoteTTL  time.Duration
}

// NewClient creates a new brapi client. cache may wrap a disabled
// Redis client, in which case every call goes upstream.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.BrapiConfig, quoteTTL time.Duration, log *logger.Logger) *Client {
	if cfg.Token != "" {
		httpClient.WithHeader("Authorization", "Bearer "+cfg.Token)
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		modules:    cfg.Modules,
		listLimit:  cfg.ListLimit,
		quoteTTL:   quoteTTL,
	}
}

// WithMetrics records upstream calls into m
func (c *Client) WithMetrics(m *telemetry.Metrics) *Client {
	c.metrics = m
	return c
}

// ListSymbols returns up to limit tickers from /api/quote/list, in
// upstream order, without duplicates
func (c *Client) ListSymbols(ctx context.Context, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "list", "/api/quote/list", params, redis.ListKey(limit), redis.TTLList)
	if err != nil {
		return nil, err
	}

	symbols := ParseSymbols(body)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	c.logger.WithField("count", len(symbols)).Debug("Fetched symbol list")
	return symbols, nil
}

// FetchQuotes fetches and normalizes quotes for symbols, in chunks.
// Any failed chunk fails the whole call.
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Stock, error) {
	stocks := make([]contracts.Stock, 0, len(symbols))

	for start := 0; start < len(symbols); start += maxSymbolsPerRequest {
		end := start + maxSymbolsPerRequest
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[start:end]

		params := url.Values{}
		if len(c.modules) > 0 {
			params.Set("modules", strings.Join(c.modules, ","))
		}

		path := "/api/quote/" + strings.Join(chunk, ",")
		body, err := c.get(ctx, "quote", path, params, redis.QuoteKey(chunk, c.modules), c.quoteTTL)
		if err != nil {
			return nil, fmt.Errorf("fetch quotes %s: %w", strings.Join(chunk, ","), err)
		}

		stocks = append(stocks, ParseQuotes(body)...)
	}

	return stocks, nil
}

// Snapshot lists symbols (when none are given) and fetches their quotes.
// On failure it logs and returns an empty, non-nil slice with the error.
func (c *Client) Snapshot(ctx context.Context, symbols []string) ([]contracts.Stock, error) {
	var err error
	if len(symbols) == 0 {
		symbols, err = c.ListSymbols(ctx, c.listLimit)
		if err != nil {
			c.logger.WithError(err).Warn("Symbol list failed, returning empty snapshot")
			return []contracts.Stock{}, err
		}
	}

	stocks, err := c.FetchQuotes(ctx, symbols)
	if err != nil {
		c.logger.WithError(err).Warn("Quote fetch failed, returning empty snapshot")
		return []contracts.Stock{}, err
	}

	c.logger.WithFields(map[string]interface{}{
		"requested":  len(symbols),
		"normalized": len(stocks),
	}).Info("Fetched quote snapshot")

	return stocks, nil
}

// get returns a JSON body from the cache or from upstream
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, cacheKey string, ttl time.Duration) ([]byte, error) {
	if body, found, err := c.cache.GetBytes(ctx, cacheKey); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Cache read failed")
	} else if found {
		c.metrics.ObserveUpstream(endpoint, "cache_hit", 0)
		return body, nil
	}

	start := time.Now()
	body, err := c.fetch(ctx, path, params)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		return nil, err
	}
	c.metrics.ObserveUpstream(endpoint, "ok", time.Since(start))

	if err := c.cache.SetBytes(ctx, cacheKey, body, ttl); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Cache write failed")
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fullURL + "?" + params.Encode()
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON body", ErrUpstream)
	}

	return body, nil
}
