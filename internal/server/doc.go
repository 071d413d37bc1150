// Package server implements the HTTP and WebSocket surface of the room chat
// relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, perimeter middleware and HTTP handlers.
// All room, presence and history state lives in the chat package; this
// package only admits connections, moves frames and exposes read-only
// diagnostics.
package server
