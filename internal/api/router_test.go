package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/b3monitor/internal/api/handlers"
	c "github.com/wonny/b3monitor/internal/contracts"
	"github.com/wonny/b3monitor/internal/metrics"
	"github.com/wonny/b3monitor/internal/scheduler"
	"github.com/wonny/b3monitor/internal/scheduler/jobs"
	"github.com/wonny/b3monitor/internal/selection"
	"github.com/wonny/b3monitor/internal/snapshot"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/logger"
)

type fakeSource struct {
	err error
}

func (f *fakeSource) Snapshot(ctx context.Context, symbols []string) ([]c.Stock, error) {
	if f.err != nil {
		return []c.Stock{}, f.err
	}
	return []c.Stock{
		{Symbol: "BBAS3", RegularMarketPrice: c.Float(27.5), PriceEarnings: c.Float(4), EarningsPerShare: c.Float(6.7), BookValuePerShare: c.Float(34.1)},
		{Symbol: "ITSA4", RegularMarketPrice: c.Float(10), EarningsPerShare: c.Float(1), BookValuePerShare: c.Float(8)},
		{Symbol: "WEGE3", PriceEarnings: c.Float(30), PriceBookValue: c.Float(9)},
	}, nil
}

type testEnv struct {
	server    *httptest.Server
	source    *fakeSource
	refresher *snapshot.Refresher
	store     *snapshot.Store
	scheduler *scheduler.Scheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	m := telemetry.New()

	store := snapshot.NewStore()
	source := &fakeSource{}
	screener := selection.NewScreener(metrics.DefaultThresholds(), log)
	refresher := snapshot.NewRefresher(source, screener, store, nil, log).WithMetrics(m)

	sched := scheduler.New(log).WithRetry(0, time.Millisecond)
	require.NoError(t, sched.AddJob(jobs.NewRefreshJob(refresher, "@hourly", log)))

	router := NewRouter(Routes{
		Store:     store,
		Stocks:    handlers.NewStocksHandler(store, refresher, log),
		Stream:    handlers.NewStreamHandler(store, m, log),
		Scheduler: handlers.NewSchedulerHandler(sched, log),
		Metrics:   m.Handler(),
	}, log)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, source: source, refresher: refresher, store: store, scheduler: sched}
}

func (e *testEnv) refresh(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	snap, err := e.refresher.Refresh(context.Background())
	require.NoError(t, err)
	return snap
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]interface{}
	resp := getJSON(t, env.server.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 0.0, body["streamClients"])
	assert.NotContains(t, body, "snapshotId")
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDPassthrough(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestStocks_NoSnapshot(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]string
	resp := getJSON(t, env.server.URL+"/api/stocks", &body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, ErrNoSnapshot.Error(), body["error"])

	resp = getJSON(t, env.server.URL+"/api/stocks/BBAS3", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = getJSON(t, env.server.URL+"/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStocks_List(t *testing.T) {
	env := newTestEnv(t)
	snap := env.refresh(t)

	var body handlers.StocksResponse
	resp := getJSON(t, env.server.URL+"/api/stocks", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, snap.ID, body.SnapshotID)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "BBAS3", body.Rows[0].Stock.Symbol)
	assert.Equal(t, 1, body.Reasons[metrics.ReasonPVP])

	resp = getJSON(t, env.server.URL+"/api/stocks?all=true", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, body.Count)
	assert.Equal(t, metrics.ReasonPVP, body.Rows[2].Reason)
}

func TestStocks_ListRanked(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	var body handlers.StocksResponse
	getJSON(t, env.server.URL+"/api/stocks?rank=true", &body)
	require.Len(t, body.Rows, 2)
	// ITSA4: sqrt(22.5*1*8)=13.4 vs price 10; BBAS3: 71.7 vs 27.5
	assert.Equal(t, "BBAS3", body.Rows[0].Stock.Symbol)
	assert.Equal(t, 1, body.Rows[0].Rank)
	assert.Equal(t, 2, body.Rows[1].Rank)
}

func TestStocks_Get(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	var row selection.Row
	resp := getJSON(t, env.server.URL+"/api/stocks/wege3", &row)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WEGE3", row.Stock.Symbol)
	assert.False(t, row.Admitted)

	resp = getJSON(t, env.server.URL+"/api/stocks/XXXX3", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPage(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	resp, err := http.Get(env.server.URL + "/?all=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Monitor de Ações Brasileiras", doc.Find("h1").Text())
	assert.Equal(t, 3, doc.Find("#stocks tbody tr").Length())
	assert.Equal(t, 1, doc.Find("#stocks tbody tr.rejected").Length())
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.store.Latest())

	env.source.err = errors.New("brapi down")
	resp, err = http.Post(env.server.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.NotNil(t, env.store.Latest(), "previous snapshot kept")
}

func TestSchedulerEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var body handlers.SchedulerResponse
	resp := getJSON(t, env.server.URL+"/api/scheduler", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, jobs.RefreshJobName, body.Jobs[0].JobName)
	assert.Zero(t, body.Jobs[0].TotalRuns)

	_, err := env.scheduler.RunJob(context.Background(), jobs.RefreshJobName)
	require.NoError(t, err)

	env.source.err = errors.New("brapi down")
	_, err = env.scheduler.RunJob(context.Background(), jobs.RefreshJobName)
	require.Error(t, err)

	var raw struct {
		Jobs []map[string]interface{} `json:"jobs"`
	}
	getJSON(t, env.server.URL+"/api/scheduler", &raw)
	require.Len(t, raw.Jobs, 1)
	job := raw.Jobs[0]
	assert.Equal(t, 2.0, job["total_runs"])
	assert.Equal(t, 1.0, job["failure_count"])
	assert.Equal(t, 0.5, job["success_rate"])
	assert.Contains(t, job["last_error"], "brapi down")
	assert.Contains(t, job, "last_run")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStream(t *testing.T) {
	env := newTestEnv(t)
	first := env.refresh(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg handlers.StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, first.ID, msg.SnapshotID)
	assert.Len(t, msg.Admitted, 2)

	require.Eventually(t, func() bool { return env.store.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	second := env.refresh(t)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, second.ID, msg.SnapshotID)
}
