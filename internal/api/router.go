package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/b3monitor/internal/api/handlers"
	"github.com/wonny/b3monitor/internal/snapshot"
	"github.com/wonny/b3monitor/pkg/logger"
)

// ErrNoSnapshot is returned (as 503) before the first refresh
var ErrNoSnapshot = handlers.ErrNoSnapshot

// Routes bundles what the router serves. Scheduler and Metrics may be nil.
type Routes struct {
	Store     *snapshot.Store
	Stocks    *handlers.StocksHandler
	Stream    *handlers.StreamHandler
	Scheduler *handlers.SchedulerHandler
	Metrics   http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(routes.Store)).Methods(http.MethodGet)

	// HTML table
	r.HandleFunc("/", routes.Stocks.Page).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stocks", routes.Stocks.List).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{symbol}", routes.Stocks.Get).Methods(http.MethodGet)
	api.HandleFunc("/refresh", routes.Stocks.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/ws", routes.Stream.Serve).Methods(http.MethodGet)
	if routes.Scheduler != nil {
		api.HandleFunc("/scheduler", routes.Scheduler.Stats).Methods(http.MethodGet)
	}

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods(http.MethodGet)
	}

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler reports liveness, the age of the snapshot and
// how many websocket clients follow it
func healthCheckHandler(store *snapshot.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":        "ok",
			"service":       "b3monitor",
			"streamClients": store.Subscribers(),
		}
		if snap := store.Latest(); snap != nil {
			body["snapshotId"] = snap.ID
			body["takenAt"] = snap.TakenAt
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}
