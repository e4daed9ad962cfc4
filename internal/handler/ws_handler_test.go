package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"beamchat/internal/app/chat"
	"beamchat/internal/configs"
	"beamchat/internal/pkg/limiter"
)

// newWebSocketTestServer stands up the websocket endpoint with a fresh hub
// and a limiter generous enough to never interfere.
func newWebSocketTestServer(t *testing.T) (*httptest.Server, *AppDeps) {
	t.Helper()

	deps := &AppDeps{
		Hub: chat.NewHub(),
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   "test_secret",
		},
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(1000), 1000)

	srv := httptest.NewServer(HandleWebSocket(upgrader, connectLimiter, deps))
	t.Cleanup(srv.Close)

	return srv, deps
}

func dialWebSocket(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + UserIDQueryParam + "=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env chat.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func readPresence(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()

	env := readEnvelope(t, conn)
	require.Equal(t, chat.EventOnlineUsers, env.Event)

	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	return ids
}

func expectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))

	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, got %s", raw)
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	t.Fatalf("unexpected error while waiting for absence of frames: %v", err)
}

func TestWebSocketPresenceLifecycle(t *testing.T) {
	srv, _ := newWebSocketTestServer(t)

	connA := dialWebSocket(t, srv, "A")
	require.ElementsMatch(t, []string{"A"}, readPresence(t, connA))

	connB := dialWebSocket(t, srv, "B")
	require.ElementsMatch(t, []string{"A", "B"}, readPresence(t, connA))
	require.ElementsMatch(t, []string{"A", "B"}, readPresence(t, connB))

	require.NoError(t, connB.Close())

	require.ElementsMatch(t, []string{"A"}, readPresence(t, connA))
}

func TestWebSocketRejectsMissingUserID(t *testing.T) {
	srv, _ := newWebSocketTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketDeliversToConnectedRecipient(t *testing.T) {
	srv, deps := newWebSocketTestServer(t)

	connA := dialWebSocket(t, srv, "A")
	connB := dialWebSocket(t, srv, "B")

	readPresence(t, connA)
	readPresence(t, connA)
	readPresence(t, connB)

	deps.Hub.Deliver(chat.MessageEvent{
		ID:         "m1",
		SenderID:   "A",
		ReceiverID: "B",
		Text:       "hello",
		CreatedAt:  time.Now(),
	})

	env := readEnvelope(t, connB)
	require.Equal(t, chat.EventNewMessage, env.Event)

	var event chat.MessageEvent
	require.NoError(t, json.Unmarshal(env.Data, &event))
	require.Equal(t, "hello", event.Text)
	require.Equal(t, "A", event.SenderID)

	// The sender's own connection gets nothing.
	expectNoFrame(t, connA, 300*time.Millisecond)
}

func TestWebSocketDeliverToOfflineRecipientIsDropped(t *testing.T) {
	srv, deps := newWebSocketTestServer(t)

	connA := dialWebSocket(t, srv, "A")
	readPresence(t, connA)

	deps.Hub.Deliver(chat.MessageEvent{SenderID: "A", ReceiverID: "B", Text: "hello"})

	expectNoFrame(t, connA, 300*time.Millisecond)
}

func TestWebSocketReplacedSessionGetsCloseCode(t *testing.T) {
	srv, _ := newWebSocketTestServer(t)

	first := dialWebSocket(t, srv, "U")
	require.ElementsMatch(t, []string{"U"}, readPresence(t, first))

	second := dialWebSocket(t, srv, "U")
	require.ElementsMatch(t, []string{"U"}, readPresence(t, second))

	// The superseded connection is closed with the session-replaced code.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	require.True(t, websocket.IsCloseError(err, chat.CloseCodeSessionReplaced),
		"expected close code %d, got %v", chat.CloseCodeSessionReplaced, err)
}

func TestWebSocketTypingRelay(t *testing.T) {
	srv, _ := newWebSocketTestServer(t)

	connA := dialWebSocket(t, srv, "A")
	connB := dialWebSocket(t, srv, "B")

	readPresence(t, connA)
	readPresence(t, connA)
	readPresence(t, connB)

	frame, err := chat.NewEnvelope(chat.EventTyping, chat.TypingPayload{ReceiverID: "B", Typing: true})
	require.NoError(t, err)
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, frame))

	env := readEnvelope(t, connB)
	require.Equal(t, chat.EventTyping, env.Event)

	var typing chat.TypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &typing))
	require.Equal(t, "A", typing.SenderID)
	require.True(t, typing.Typing)
}
