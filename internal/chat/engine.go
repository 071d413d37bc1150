package chat

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Deliverer hands an encoded frame to one connection. Implementations must
// not block; a false return means the frame was dropped.
type Deliverer interface {
	Deliver(connID string, payload []byte) bool
}

// Stats is a read-only view of engine state for diagnostics.
type Stats struct {
	TotalConnections int            `json:"totalConnections"`
	TotalRooms       int            `json:"totalRooms"`
	Rooms            map[string]int `json:"rooms"`
}

// Engine owns the registry and applies inbound events to it. Every event is
// handled to completion before the next one starts.
type Engine struct {
	mu       sync.RWMutex
	registry *Registry
	out      Deliverer
	log      *slog.Logger
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRegistry sets the registry the engine mutates.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// NewEngine creates an Engine delivering frames through out.
func NewEngine(out Deliverer, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry: NewRegistry(),
		out:      out,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch applies ev on behalf of connID. Panics are contained here and
// reported to the sender as a generic error.
func (e *Engine) Dispatch(connID string, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("event handler panicked",
				slog.String("conn", connID),
				slog.String("event", fmt.Sprintf("%T", ev)),
				slog.Any("panic", r))
			e.out.Deliver(connID, EncodeError("Internal server error"))
		}
	}()

	switch ev := ev.(type) {
	case Join:
		e.join(connID, ev.Identity)
	case SendMessage:
		e.sendMessage(connID, ev.Message)
	case Typing:
		e.typing(connID, EventUserTyping)
	case StopTyping:
		e.typing(connID, EventUserStopTyping)
	case Disconnect:
		e.disconnect(connID)
	default:
		e.log.Warn("unhandled event", slog.String("conn", connID), slog.String("event", fmt.Sprintf("%T", ev)))
	}
}

// Reject answers connID with an error frame without touching state.
func (e *Engine) Reject(connID, msg string) {
	e.out.Deliver(connID, EncodeError(msg))
}

// Stats returns connection and room counts.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Stats{
		TotalConnections: e.registry.ConnectionCount(),
		TotalRooms:       e.registry.RoomCount(),
		Rooms:            e.registry.RoomCounts(),
	}
}

func (e *Engine) join(connID string, id Identity) {
	if _, active := e.registry.Presence(connID); active {
		e.log.Debug("duplicate join ignored", slog.String("conn", connID))
		return
	}

	now := e.now()
	e.registry.Join(connID, id, now)
	count := e.registry.MemberCount(id.Room)
	e.log.Info("user joined",
		slog.String("conn", connID),
		slog.String("username", id.Username),
		slog.String("room", id.Room),
		slog.Int("members", count))

	e.send(connID, EventMessageHistory, e.registry.Recent(id.Room, HistoryReplay))
	e.broadcast(id.Room, connID, EventUserJoined, PresenceChange{
		Username:  id.Username,
		Timestamp: now,
		UserCount: count,
	})
	e.broadcast(id.Room, "", EventUserList, e.registry.MemberList(id.Room))
}

func (e *Engine) sendMessage(connID, raw string) {
	rec, active := e.registry.Presence(connID)
	if !active {
		e.log.Debug("message from inactive connection dropped", slog.String("conn", connID))
		return
	}

	body, ok, tooLong := validateBody(raw)
	if tooLong {
		e.out.Deliver(connID, EncodeError("Message too long"))
		return
	}
	if !ok {
		return
	}

	now := e.now()
	msg := Message{
		ID:        connID + "-" + strconv.FormatInt(now.UnixMilli(), 10),
		Username:  rec.Username,
		Message:   body,
		Timestamp: now,
		Room:      rec.Room,
	}
	e.registry.Append(rec.Room, msg)
	e.broadcast(rec.Room, "", EventNewMessage, msg)
}

func (e *Engine) typing(connID, eventType string) {
	rec, active := e.registry.Presence(connID)
	if !active {
		return
	}
	e.broadcast(rec.Room, connID, eventType, TypingSignal{Username: rec.Username})
}

func (e *Engine) disconnect(connID string) {
	rec, known := e.registry.Leave(connID)
	if !known {
		return
	}

	count := e.registry.MemberCount(rec.Room)
	e.log.Info("user left",
		slog.String("conn", connID),
		slog.String("username", rec.Username),
		slog.String("room", rec.Room),
		slog.Int("members", count))

	if count == 0 {
		return
	}
	e.broadcast(rec.Room, "", EventUserLeft, PresenceChange{
		Username:  rec.Username,
		Timestamp: e.now(),
		UserCount: count,
	})
	e.broadcast(rec.Room, "", EventUserList, e.registry.MemberList(rec.Room))
}

// send delivers one event to a single connection.
func (e *Engine) send(connID, eventType string, data any) {
	frame, err := EncodeEvent(eventType, data)
	if err != nil {
		e.log.Error("encode failed", slog.String("event", eventType), slog.Any("error", err))
		return
	}
	if !e.out.Deliver(connID, frame) {
		e.log.Warn("delivery dropped", slog.String("conn", connID), slog.String("event", eventType))
	}
}

// broadcast delivers one event to the members of roomID at the time of the
// call, skipping exclude when it is non-empty.
func (e *Engine) broadcast(roomID, exclude, eventType string, data any) {
	frame, err := EncodeEvent(eventType, data)
	if err != nil {
		e.log.Error("encode failed", slog.String("event", eventType), slog.Any("error", err))
		return
	}

	members := e.registry.Members(roomID)
	for _, connID := range members {
		if connID == exclude {
			continue
		}
		if !e.out.Deliver(connID, frame) {
			e.log.Warn("delivery dropped", slog.String("conn", connID), slog.String("event", eventType))
		}
	}
}
