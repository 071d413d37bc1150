// Package server coordinates client registration, event delivery, and
// connection cleanup for the chat WebSocket system via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Hub owns the live WebSocket clients and feeds their events, one at a time,
// into the messaging engine. It is the engine's Deliverer.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent
	engine     *chat.Engine
	cfg        Config
	log        *slog.Logger
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with its own engine. The returned Hub is ready to run.
func NewHub(cfg Config, log *slog.Logger, opts ...chat.Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
		cfg:        cfg.Sanitize(),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.engine = chat.NewEngine(h, log, opts...)
	return h
}

// Engine returns the messaging engine driven by this hub.
func (h *Hub) Engine() *chat.Engine {
	return h.engine
}

// Register hands an admitted client to the hub. It returns false once the
// hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave queues client for teardown unless the hub is already stopping.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// submit queues an inbound event, returning false once the hub is stopping.
func (h *Hub) submit(ev inboundEvent) bool {
	select {
	case h.inbound <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Deliver implements chat.Deliverer. It never blocks: a client whose buffer
// is full is disconnected and the frame is dropped.
func (h *Hub) Deliver(connID string, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("recovered from panic in Deliver", slog.Any("panic", r))
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	client, exists := h.clients[connID]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		client.log.Warn("send buffer full; closing slow connection")
		if client.conn != nil {
			_ = client.conn.Close()
		}
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's event loop. Registration, teardown and client events
// are applied strictly one after another. Run returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case ev := <-h.inbound:
			if ev.reject != "" {
				h.engine.Reject(ev.connID, ev.reject)
				continue
			}
			h.engine.Dispatch(ev.connID, ev.event)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	client.log.Info("client registered", slog.Int("clients", clientCount))

	h.engine.Dispatch(client.id, chat.Join{Identity: client.identity})

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	client.log.Info("client unregistered", slog.Int("clients", clientCount))

	h.engine.Dispatch(client.id, chat.Disconnect{})
}

// shutdownClients closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					client.log.Warn("closing client connection failed", slog.Any("error", err))
				}
			}
		}
	}

	h.log.Info("closed client connections", slog.Int("count", len(clients)))
}

// Shutdown stops the hub and waits for all client goroutines to complete,
// or until timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
