package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/b3monitor/internal/report"
	"github.com/wonny/b3monitor/internal/selection"
	"github.com/wonny/b3monitor/internal/snapshot"
	"github.com/wonny/b3monitor/pkg/logger"
)

// Refresher triggers an out-of-schedule refresh
type Refresher interface {
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
}

// StocksHandler serves the screened snapshot
// ⭐ SSOT: stock table endpoints live in this handler only
type StocksHandler struct {
	store     *snapshot.Store
	refresher Refresher
	logger    *logger.Logger
}

// NewStocksHandler creates a new stocks handler
func NewStocksHandler(store *snapshot.Store, refresher Refresher, log *logger.Logger) *StocksHandler {
	return &StocksHandler{
		store:     store,
		refresher: refresher,
		logger:    log,
	}
}

// StocksResponse is the body of GET /api/stocks
type StocksResponse struct {
	SnapshotID string          `json:"snapshotId"`
	TakenAt    time.Time       `json:"takenAt"`
	Count      int             `json:"count"`
	Rows       []selection.Row `json:"rows"`
	Reasons    map[string]int  `json:"reasons"`
}

// List returns the admitted rows, or every row with all=true
// GET /api/stocks?all=true&rank=true
func (h *StocksHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Latest()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, ErrNoSnapshot.Error())
		return
	}

	rows := rowsFor(snap.Result, queryBool(r, "all"), queryBool(r, "rank"))

	respondJSON(w, http.StatusOK, StocksResponse{
		SnapshotID: snap.ID,
		TakenAt:    snap.TakenAt,
		Count:      len(rows),
		Rows:       rows,
		Reasons:    snap.Result.Reasons,
	})
}

// Get returns one row, admitted or not
// GET /api/stocks/{symbol}
func (h *StocksHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	snap := h.store.Latest()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, ErrNoSnapshot.Error())
		return
	}

	row, ok := snap.Result.Find(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "symbol not in snapshot: "+symbol)
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// Page renders the HTML table
// GET /?all=true&rank=true
func (h *StocksHandler) Page(w http.ResponseWriter, r *http.Request) {
	all, rank := queryBool(r, "all"), queryBool(r, "rank")
	page := report.Page{Options: report.TableOptions{ShowRank: rank, ShowReason: all}}

	status := http.StatusOK
	if snap := h.store.Latest(); snap != nil {
		page.SnapshotID = snap.ID
		page.TakenAt = snap.TakenAt
		page.Rows = rowsFor(snap.Result, all, rank)
		page.Reasons = snap.Result.Reasons
	} else {
		status = http.StatusServiceUnavailable
	}

	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, page); err != nil {
		h.logger.WithError(err).Error("Failed to render page")
		respondError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Refresh pulls a new snapshot now
// POST /api/refresh
func (h *StocksHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.refresher.Refresh(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Manual refresh failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshotId": snap.ID,
		"takenAt":    snap.TakenAt,
		"admitted":   len(snap.Result.Admitted),
		"rejected":   len(snap.Result.Rejected),
	})
}

func rowsFor(result *selection.Result, all, rank bool) []selection.Row {
	if rank {
		ranked := selection.Rank(result.Admitted)
		if !all {
			return ranked
		}
		return append(ranked, result.Rejected...)
	}
	return result.Rows(all)
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
