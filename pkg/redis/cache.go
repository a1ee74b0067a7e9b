package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores upstream response bodies verbatim so a cached hit
// goes through the same normalization path as a live response.
// ⭐ SSOT: cache helpers live here only
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// GetBytes returns the cached body. found=false on miss or when disabled.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.client.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	return data, true, nil
}

// SetBytes stores a body with TTL
func (c *Cache) SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() || ttl <= 0 {
		return nil
	}

	if err := c.client.Redis().Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// Predefined TTLs
const (
	TTLQuote = 5 * time.Minute // intraday quotes
	TTLList  = 1 * time.Hour   // ticker list
)

// ListKey is the key of the ticker list response for a given limit
func ListKey(limit int) string {
	return fmt.Sprintf("brapi:list:%d", limit)
}

// QuoteKey is the key of a quote response for a symbol chunk and module set.
// Long symbol lists are hashed to keep keys short.
func QuoteKey(symbols []string, modules []string) string {
	joined := strings.Join(symbols, ",") + "|" + strings.Join(modules, ",")
	if len(joined) <= 64 {
		return "brapi:quote:" + joined
	}
	sum := sha1.Sum([]byte(joined))
	return "brapi:quote:" + hex.EncodeToString(sum[:])
}
