package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/b3monitor/internal/api"
	"github.com/wonny/b3monitor/internal/api/handlers"
	"github.com/wonny/b3monitor/internal/scheduler"
	"github.com/wonny/b3monitor/internal/scheduler/jobs"
	"github.com/wonny/b3monitor/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server with scheduled refreshes",
	Long: `Serves the screened table and keeps it fresh.

Endpoints:
  GET  /                   - HTML table (?all=true&rank=true)
  GET  /health             - Health check
  GET  /api/stocks         - Admitted rows as JSON (?all=true&rank=true)
  GET  /api/stocks/{sym}   - One row, admitted or not
  POST /api/refresh        - Refresh now
  GET  /api/ws             - Websocket, one message per snapshot
  GET  /api/scheduler      - Refresh job run history
  GET  /metrics            - Prometheus metrics (METRICS_ENABLED)

Example:
  go run ./cmd/b3monitor serve
  go run ./cmd/b3monitor serve --port 8080`,
	RunE: runServe,
}

var (
	servePort    string
	serveSymbols []string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (default: PORT)")
	serveCmd.Flags().StringSliceVar(&serveSymbols, "symbols", nil, "tickers to follow instead of the brapi list")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, log := a.cfg, a.log
	if servePort != "" {
		cfg.Port = servePort
	}

	// 1. Snapshot store and refresher
	store := snapshot.NewStore()
	refresher := snapshot.NewRefresher(a.brapi, a.screener, store, parseSymbols(serveSymbols...), log).
		WithMetrics(a.metrics)

	// 2. Scheduler
	sched := scheduler.New(log).WithRetry(2, 30*time.Second)
	if err := sched.AddJob(jobs.NewRefreshJob(refresher, cfg.Refresh.Schedule, log)); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	// 3. Router and server
	routes := api.Routes{
		Store:     store,
		Stocks:    handlers.NewStocksHandler(store, refresher, log),
		Stream:    handlers.NewStreamHandler(store, a.metrics, log),
		Scheduler: handlers.NewSchedulerHandler(sched, log),
	}
	if cfg.MetricsEnabled {
		routes.Metrics = a.metrics.Handler()
	}
	server := api.New(cfg, log, api.NewRouter(routes, log))

	// 4. Start everything
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()
	sched.Start()

	if cfg.Refresh.OnStart {
		go func() {
			if _, err := sched.RunJob(context.Background(), jobs.RefreshJobName); err != nil {
				log.WithError(err).Warn("Initial refresh failed")
			}
		}()
	}

	out := cmd.OutOrStdout()
	PrintSuccess(out, fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	PrintInfo(out, fmt.Sprintf("Refresh schedule: %s", cfg.Refresh.Schedule))
	if next, ok := sched.NextRun(jobs.RefreshJobName); ok && !next.IsZero() {
		PrintInfo(out, fmt.Sprintf("Next refresh: %s", next.Format(time.RFC3339)))
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serverErr:
		sched.Stop()
		return err
	}

	log.Info("Shutting down server...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
