package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is an inbound event for a single connection. The concrete types are
// Join, SendMessage, Typing, StopTyping and Disconnect.
type Event interface {
	isEvent()
}

// Join moves an admitted connection into its room.
type Join struct {
	Identity Identity
}

// SendMessage carries a chat body submitted by a connection.
type SendMessage struct {
	Message string
}

// Typing signals that the connection's user started typing.
type Typing struct{}

// StopTyping signals that the connection's user stopped typing.
type StopTyping struct{}

// Disconnect is raised by the transport once the connection is gone.
type Disconnect struct{}

func (Join) isEvent()        {}
func (SendMessage) isEvent() {}
func (Typing) isEvent()      {}
func (StopTyping) isEvent()  {}
func (Disconnect) isEvent()  {}

// Inbound event names accepted from clients.
const (
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
)

// Outbound event names sent to clients.
const (
	EventMessageHistory = "message_history"
	EventUserJoined     = "user_joined"
	EventUserList       = "user_list"
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventUserLeft       = "user_left"
	EventError          = "error"
)

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an immutable chat record.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Room      string    `json:"room"`
}

// PresenceChange is the payload of user_joined and user_left.
type PresenceChange struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	UserCount int       `json:"userCount"`
}

// TypingSignal is the payload of user_typing and user_stop_typing.
type TypingSignal struct {
	Username string `json:"username"`
}

// ErrorPayload is the payload of error.
type ErrorPayload struct {
	Message string `json:"message"`
}

type sendMessageData struct {
	Message *string `json:"message"`
}

// DecodeEvent parses a client frame into an Event.
func DecodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Type {
	case EventSendMessage:
		var data sendMessageData
		if len(env.Data) == 0 {
			return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if data.Message == nil {
			return nil, fmt.Errorf("%w: missing message", ErrMalformedEvent)
		}
		return SendMessage{Message: *data.Message}, nil
	case EventTyping:
		return Typing{}, nil
	case EventStopTyping:
		return StopTyping{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

// EncodeEvent builds an outbound frame.
func EncodeEvent(eventType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Data: payload})
}

// EncodeError builds an error frame for msg.
func EncodeError(msg string) []byte {
	frame, err := EncodeEvent(EventError, ErrorPayload{Message: msg})
	if err != nil {
		return []byte(`{"type":"error","data":{"message":"Internal server error"}}`)
	}
	return frame
}
