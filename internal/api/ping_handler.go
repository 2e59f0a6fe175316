// File: backend/internal/api/ping_handler.go
package api

import (
	"net/http"
	"time"
)

// PingHandler responds to ping requests to check server health.
func (h *APIHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "pong", "timestamp": h.now().Format(time.RFC3339)})
}

type healthResponse struct {
	Status         string `json:"status"`
	HasCredentials bool   `json:"hasCredentials"`
	Port           string `json:"port"`
}

// HealthHandler reports whether the server is configured to run searches.
// It never reveals credential values.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		HasCredentials: h.Finder.CheckCredentials() == nil,
		Port:           h.Config.Server.Port,
	})
}
