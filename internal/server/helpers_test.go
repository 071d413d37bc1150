package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/server"
)

const testOrigin = "http://localhost:8080"

// startTestServer runs a Server behind httptest. mutate may adjust the
// configuration before the server is built.
func startTestServer(t *testing.T, mutate func(*server.Config)) (*server.Server, *httptest.Server) {
	t.Helper()

	cfg := server.DefaultConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	if mutate != nil {
		mutate(&cfg)
	}

	srv := server.New(cfg, slog.New(slog.DiscardHandler))
	srv.StartHub()
	ts := httptest.NewServer(srv.SetupRoutes())

	t.Cleanup(func() {
		_ = srv.Hub().Shutdown(2 * time.Second)
		ts.Close()
	})
	return srv, ts
}

func wsURL(t *testing.T, base, username, room string) string {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	q := url.Values{}
	q.Set("username", username)
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// dial opens a WebSocket as username in room with the allowed test origin.
func dial(t *testing.T, base, username, room string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	header.Set("Origin", testOrigin)

	conn, resp, err := dialer.Dial(wsURL(t, base, username, room), header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env chat.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// expectFrames reads len(want) frames and checks their types in order.
func expectFrames(t *testing.T, conn *websocket.Conn, want ...string) []chat.Envelope {
	t.Helper()
	frames := make([]chat.Envelope, 0, len(want))
	for _, typ := range want {
		frame := readFrame(t, conn)
		require.Equal(t, typ, frame.Type)
		frames = append(frames, frame)
	}
	return frames
}

func expectNoFrame(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
}

func decodeData[T any](t *testing.T, env chat.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func getJSON[T any](t *testing.T, rawURL string) (T, *http.Response) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v, resp
}
