package brapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/config"
	"github.com/wonny/b3monitor/pkg/httputil"
	"github.com/wonny/b3monitor/pkg/logger"
	"github.com/wonny/b3monitor/pkg/redis"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	return newCachedTestClient(t, handler, redis.NewCache(redis.Disabled(), "test"))
}

func newCachedTestClient(t *testing.T, handler http.HandlerFunc, cache *redis.Cache) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.BrapiConfig{
		BaseURL:   server.URL + "/",
		Token:     "secret",
		ListLimit: 50,
		Modules:   []string{"financialData", "defaultKeyStatistics"},
	}
	httpClient := httputil.New(logger.Nop(), 5*time.Second).DisableRetry()

	return NewClient(httpClient, cache, cfg, redis.TTLQuote, logger.Nop())
}

func TestListSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote/list", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"stocks":[{"stock":"PETR4"},{"stock":"VALE3"},{"stock":"PETR4"}]}`)
	})

	symbols, err := client.ListSymbols(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"PETR4", "VALE3"}, symbols)
}

func TestListSymbols_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stocks":[]}`)
	})

	_, err := client.ListSymbols(context.Background(), 50)
	assert.ErrorIs(t, err, ErrNoSymbols)
}

func TestFetchQuotes_Chunks(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "financialData,defaultKeyStatistics", r.URL.Query().Get("modules"))

		symbols := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/quote/"), ",")
		assert.LessOrEqual(t, len(symbols), maxSymbolsPerRequest)

		items := make([]string, 0, len(symbols))
		for _, s := range symbols {
			items = append(items, fmt.Sprintf(`{"symbol":%q,"priceEarnings":5}`, s))
		}
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(items, ","))
	})

	symbols := make([]string, 45)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%d", i)
	}

	stocks, err := client.FetchQuotes(context.Background(), symbols)
	require.NoError(t, err)
	require.Len(t, stocks, 45)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "SYM0", stocks[0].Symbol)
	assert.Equal(t, "SYM44", stocks[44].Symbol)
}

func TestFetchQuotes_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":true,"message":"token inválido"}`)
	})

	_, err := client.FetchQuotes(context.Background(), []string{"PETR4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "token inválido")
}

func TestFetchQuotes_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	})

	_, err := client.FetchQuotes(context.Background(), []string{"PETR4"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/quote/list" {
			fmt.Fprint(w, `{"stocks":[{"stock":"PETR4"}]}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4","priceEarnings":3.9}]}`)
	})
	m := telemetry.New()
	client.WithMetrics(m)

	stocks, err := client.Snapshot(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "PETR4", stocks[0].Symbol)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("quote", "ok")))
}

func TestSnapshot_FailureReturnsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	stocks, err := client.Snapshot(context.Background(), nil)
	require.Error(t, err)
	assert.NotNil(t, stocks)
	assert.Empty(t, stocks)
}

func TestFetchQuotes_CacheHit(t *testing.T) {
	const body = `{"results":[{"symbol":"PETR4","priceEarnings":3.9}]}`
	modules := []string{"financialData", "defaultKeyStatistics"}
	key := "test:cache:" + redis.QuoteKey([]string{"PETR4"}, modules)

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte(body), redis.TTLQuote).SetVal("OK")
	mock.ExpectGet(key).SetVal(body)

	var calls int32
	client := newCachedTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, body)
	}, redis.NewCache(redis.FromClient(db), "test"))
	m := telemetry.New()
	client.WithMetrics(m)

	for i := 0; i < 2; i++ {
		stocks, err := client.FetchQuotes(context.Background(), []string{"PETR4"})
		require.NoError(t, err)
		require.Len(t, stocks, 1)
		require.NotNil(t, stocks[0].PriceEarnings)
		assert.Equal(t, 3.9, *stocks[0].PriceEarnings)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second fetch served from cache")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("quote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("quote", "cache_hit")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchQuotes_CacheErrorFallsThrough(t *testing.T) {
	modules := []string{"financialData", "defaultKeyStatistics"}
	key := "test:cache:" + redis.QuoteKey([]string{"PETR4"}, modules)

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, []byte(`{"results":[{"symbol":"PETR4"}]}`), redis.TTLQuote).SetErr(errors.New("connection refused"))

	client := newCachedTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4"}]}`)
	}, redis.NewCache(redis.FromClient(db), "test"))

	stocks, err := client.FetchQuotes(context.Background(), []string{"PETR4"})
	require.NoError(t, err)
	assert.Len(t, stocks, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
