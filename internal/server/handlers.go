// Package server exposes HTTP handlers, including WebSocket upgrades, the
// diagnostic endpoints, and the static chat client.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	Environment string    `json:"environment"`
}

// WebSocketHandler admits the username and room named in the query string,
// upgrades the connection and hands it to the hub. Admission failures are
// reported as 400 before any state is created.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	identity, err := chat.Admit(query.Get("username"), query.Get("room"))
	if err != nil {
		s.log.Info("connection rejected", slog.String("addr", r.RemoteAddr), slog.Any("reason", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", slog.String("addr", r.RemoteAddr), slog.Any("error", err))
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, identity)
	if !s.hub.Register(client) {
		_ = conn.Close()
	}
}

// HealthHandler reports liveness together with connection and room totals.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := s.hub.Engine().Stats()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Connections: stats.TotalConnections,
		Rooms:       stats.TotalRooms,
		Environment: s.cfg.Environment,
	})
}

// StatsHandler reports totals and per-room member counts.
func (s *Server) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.hub.Engine().Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("writing JSON response failed", slog.Any("error", err))
	}
}
