package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/b3monitor/internal/external/brapi"
	"github.com/wonny/b3monitor/internal/metrics"
	"github.com/wonny/b3monitor/internal/selection"
	"github.com/wonny/b3monitor/internal/strategyconfig"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/config"
	"github.com/wonny/b3monitor/pkg/httputil"
	"github.com/wonny/b3monitor/pkg/logger"
	"github.com/wonny/b3monitor/pkg/redis"
)

// app is the wiring shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	metrics  *telemetry.Metrics
	brapi    *brapi.Client
	screener *selection.Screener
}

// newApp loads config and builds the quote client and the screener
func newApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Screen thresholds
	thresholds, err := loadThresholds(cfg.StrategyFile, log)
	if err != nil {
		return nil, err
	}

	// 4. Redis (cache + shared rate limit), disabled unless REDIS_ENABLED
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	m := telemetry.New()

	// 5. HTTP client towards brapi
	httpClient := httputil.New(log, cfg.Brapi.Timeout).
		WithRetry(2, 500*time.Millisecond).
		WithCircuitBreaker("brapi", 5, 30*time.Second)
	if rc.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "b3monitor"), redis.BrapiRateLimit(cfg.Brapi.RequestsPerSecond))
	} else {
		httpClient.WithRequestsPerSecond(cfg.Brapi.RequestsPerSecond)
	}

	// 6. Quote source and screener
	cache := redis.NewCache(rc, "b3monitor")
	client := brapi.NewClient(httpClient, cache, cfg.Brapi, cfg.Redis.QuoteTTL, log).WithMetrics(m)
	screener := selection.NewScreener(thresholds, log).WithMetrics(m)

	return &app{
		cfg:      cfg,
		log:      log,
		redis:    rc,
		metrics:  m,
		brapi:    client,
		screener: screener,
	}, nil
}

// Close releases the Redis connection
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// loadThresholds reads the strategy file, or returns the defaults when path is empty
func loadThresholds(path string, log *logger.Logger) (metrics.Thresholds, error) {
	if path == "" {
		return metrics.DefaultThresholds(), nil
	}

	sc, _, err := strategyconfig.Load(path)
	if err != nil {
		return metrics.Thresholds{}, fmt.Errorf("load strategy %s: %w", path, err)
	}

	hash, err := strategyconfig.Hash(sc)
	if err != nil {
		return metrics.Thresholds{}, fmt.Errorf("hash strategy: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": sc.Meta.StrategyID,
		"file":        path,
		"hash":        hash[:12],
	}).Info("Loaded screen thresholds")

	return sc.Thresholds(), nil
}

// parseSymbols splits comma/space separated tickers, uppercased, without repeats
func parseSymbols(values ...string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, v := range values {
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
