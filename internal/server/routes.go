// Package server wires HTTP handlers into a ServeMux for the chat
// application via routing helpers.
package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// SetupRoutes returns the application handler: static client, WebSocket
// endpoint and diagnostics, wrapped in the perimeter middleware.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthHandler)
	mux.HandleFunc("GET /api/stats", s.StatsHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServerFS(static))

	return s.securityHeaders(s.cors(s.rateLimit(mux)))
}
