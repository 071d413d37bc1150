// Package chat implements the room-scoped presence and messaging engine:
// connection admission, room membership, bounded per-room history, and
// fan-out of chat, presence and typing events.
package chat

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultRoom is used when a connection does not name a room.
	DefaultRoom = "general"

	MaxUsernameLength = 50
	MaxMessageLength  = 1000
)

var validate = validator.New()

// Identity is the normalized (username, room) binding of an admitted connection.
type Identity struct {
	Username string `validate:"required,max=50"`
	Room     string
}

type messageBody struct {
	Text string `validate:"required,max=1000"`
}

// Admit validates and normalizes the username and room a connection presents.
// It never mutates state.
func Admit(username, room string) (Identity, error) {
	id := Identity{
		Username: strings.TrimSpace(username),
		Room:     strings.TrimSpace(room),
	}
	if id.Room == "" {
		id.Room = DefaultRoom
	}

	if err := validate.Struct(id); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
			return Identity{}, ErrUsernameTooLong
		}
		return Identity{}, ErrInvalidUsername
	}
	return id, nil
}

// validateBody trims a message body. ok is false when the body is empty;
// tooLong is set when it exceeds MaxMessageLength.
func validateBody(raw string) (body string, ok bool, tooLong bool) {
	body = strings.TrimSpace(raw)
	err := validate.Struct(messageBody{Text: body})
	if err == nil {
		return body, true, false
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return body, false, true
	}
	return body, false, false
}
