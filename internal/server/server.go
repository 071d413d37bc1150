// Package server implements the HTTP and WebSocket surface in front of the
// messaging engine.
package server

import (
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Server bundles the configuration, hub and perimeter policies shared by the
// HTTP handlers.
type Server struct {
	cfg       Config
	hub       *Hub
	log       *slog.Logger
	origins   originPolicy
	ipLimiter *ipRateLimiter
	upgrader  websocket.Upgrader
}

// New creates a Server and its hub. Call StartHub before serving requests.
func New(cfg Config, log *slog.Logger, opts ...chat.Option) *Server {
	cfg = cfg.Sanitize()
	s := &Server{
		cfg:       cfg,
		hub:       NewHub(cfg, log, opts...),
		log:       log,
		origins:   newOriginPolicy(cfg.AllowedOrigins, log),
		ipLimiter: newIPRateLimiter(cfg.HTTPRateLimit),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Hub returns the server's hub for shutdown coordination.
func (s *Server) Hub() *Hub {
	return s.hub
}

// StartHub runs the hub loop in a separate goroutine.
func (s *Server) StartHub() {
	go s.hub.Run()
	s.log.Info("hub started and ready to manage WebSocket connections")
}
