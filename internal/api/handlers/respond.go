package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrNoSnapshot is served as 503 until the first refresh lands
var ErrNoSnapshot = errors.New("no snapshot available yet")

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
