package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("quote", "ok", time.Second)
		m.ObserveDecision(true, "")
		m.ObserveRefresh(nil, 1, 2, time.Now())
		m.StreamClientDelta(1)
	})
}

func TestObserveUpstream(t *testing.T) {
	m := New()

	m.ObserveUpstream("quote", "ok", 200*time.Millisecond)
	m.ObserveUpstream("quote", "cache_hit", 0)
	m.ObserveUpstream("list", "error", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("quote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("quote", "cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("list", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.UpstreamDuration), "cache hits are not timed")
}

func TestObserveDecisionAndRefresh(t *testing.T) {
	m := New()

	m.ObserveDecision(true, "")
	m.ObserveDecision(false, "roe")
	m.ObserveDecision(false, "roe")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScreenDecisions.WithLabelValues("rejected", "roe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScreenDecisions.WithLabelValues("admitted", "")))

	at := time.Unix(1_700_000_000, 0)
	m.ObserveRefresh(nil, 3, 7, at)
	m.ObserveRefresh(errors.New("boom"), 0, 0, at)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StocksInSnapshot.WithLabelValues("admitted")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.StocksInSnapshot.WithLabelValues("rejected")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastRefresh))
}

func TestHandler(t *testing.T) {
	m := New()
	m.StreamClientDelta(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "b3monitor_stream_clients 2")
}
