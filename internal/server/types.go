// Package server defines shared payload types and utility helpers that
// are reused across client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// inboundEvent is one client event queued for the hub loop. When reject is
// set the connection is answered with an error frame instead.
type inboundEvent struct {
	connID string
	event  chat.Event
	reject string
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
