package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/b3monitor/internal/selection"
	"github.com/wonny/b3monitor/internal/snapshot"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// StreamMessage is pushed to websocket clients on every snapshot
type StreamMessage struct {
	Type       string          `json:"type"`
	SnapshotID string          `json:"snapshotId"`
	TakenAt    time.Time       `json:"takenAt"`
	Admitted   []selection.Row `json:"admitted"`
	Reasons    map[string]int  `json:"reasons"`
}

// StreamHandler pushes each new snapshot over a websocket
type StreamHandler struct {
	store    *snapshot.Store
	logger   *logger.Logger
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store *snapshot.Store, metrics *telemetry.Metrics, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		store:   store,
		logger:  log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func newStreamMessage(snap *snapshot.Snapshot) StreamMessage {
	return StreamMessage{
		Type:       "snapshot",
		SnapshotID: snap.ID,
		TakenAt:    snap.TakenAt,
		Admitted:   snap.Result.Admitted,
		Reasons:    snap.Result.Reasons,
	}
}

// Serve upgrades the connection, sends the current snapshot if any,
// then every new one until the client goes away
// GET /api/ws
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	h.metrics.StreamClientDelta(1)
	defer h.metrics.StreamClientDelta(-1)

	log := h.logger.WithField("remote", r.RemoteAddr)
	log.Debug("Stream client connected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(snap *snapshot.Snapshot) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(newStreamMessage(snap)); err != nil {
			log.WithError(err).Debug("Stream write failed")
			return false
		}
		return true
	}

	if snap := h.store.Latest(); snap != nil && !send(snap) {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Debug("Stream client disconnected")
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok || !send(snap) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
