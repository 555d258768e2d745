package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Notifications int    `json:"notifications"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			Notifications: len(g.shelf.ActiveTags()),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime        time.Duration `json:"uptime_seconds"`
	ActiveTags    []string      `json:"active_tags"`
	Notifications int           `json:"notifications"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		tags := g.shelf.ActiveTags()
		if tags == nil {
			tags = []string{}
		}
		resp := StatusResponse{
			Uptime:        time.Since(g.startedAt) / time.Second,
			ActiveTags:    tags,
			Notifications: len(tags),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
