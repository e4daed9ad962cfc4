package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// connect runs the registration half of the connection lifecycle without a
// live socket. Frames queue on the client's send channel, where tests read
// them back.
func connect(h *Hub, userID string) *Client {
	c := NewClient(nil, userID)
	h.attach(c)
	return c
}

// nextFrame pops one queued frame. Announce and Deliver are synchronous, so
// anything pushed is already queued by the time the test looks.
func nextFrame(t *testing.T, c *Client) Envelope {
	t.Helper()

	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatal("expected a queued frame, found none")
		return Envelope{}
	}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.send:
		t.Fatalf("expected no queued frame, got %s", raw)
	default:
	}
}

func requirePresence(t *testing.T, c *Client, want []string) {
	t.Helper()

	env := nextFrame(t, c)
	require.Equal(t, EventOnlineUsers, env.Event)

	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	require.ElementsMatch(t, want, ids)
}

func TestConnectAnnouncesFullOnlineSet(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	requirePresence(t, a, []string{"A"})

	b := connect(hub, "B")
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	requireNoFrame(t, a)
	requireNoFrame(t, b)
}

func TestDisconnectAnnouncesToRemainingConnections(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	b := connect(hub, "B")

	// Drain the connect announcements.
	requirePresence(t, a, []string{"A"})
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	b.close()

	requirePresence(t, a, []string{"A"})
	require.Equal(t, 1, hub.Registry().Len())
}

func TestDisconnectRunsExactlyOnce(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	b := connect(hub, "B")

	requirePresence(t, a, []string{"A"})
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	// A second close of the same connection must not trigger another
	// unregister or announcement.
	b.close()
	b.close()

	requirePresence(t, a, []string{"A"})
	requireNoFrame(t, a)
}

func TestReconnectSupersedesOldConnection(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	u1 := connect(hub, "U")
	requirePresence(t, u1, []string{"U"})

	u2 := connect(hub, "U")

	// The replaced connection entered its terminal state and gets no
	// further frames; the announcement reaches only the new connection.
	select {
	case <-u1.done:
	default:
		t.Fatal("replaced connection was not closed")
	}
	requirePresence(t, u2, []string{"U"})

	got, ok := hub.Registry().Lookup("U")
	req.True(ok)
	req.Same(u2, got)

	// The old connection's disconnect callback is stale: no eviction, no
	// announcement.
	requireNoFrame(t, u2)
	got, ok = hub.Registry().Lookup("U")
	req.True(ok)
	req.Same(u2, got)
}

func TestDeliverPushesOnlyToRecipient(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	b := connect(hub, "B")

	requirePresence(t, a, []string{"A"})
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	event := MessageEvent{
		ID:         "m1",
		SenderID:   "A",
		ReceiverID: "B",
		Text:       "hi",
		CreatedAt:  time.Now(),
	}
	hub.Deliver(event)

	env := nextFrame(t, b)
	require.Equal(t, EventNewMessage, env.Event)

	var got MessageEvent
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, "hi", got.Text)
	require.Equal(t, "A", got.SenderID)

	requireNoFrame(t, a)
}

func TestDeliverToOfflineRecipientIsSilentlyDropped(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	requirePresence(t, a, []string{"A"})

	hub.Deliver(MessageEvent{SenderID: "A", ReceiverID: "B", Text: "hi"})

	requireNoFrame(t, a)
}

func TestConnectDeliverReconnectScenario(t *testing.T) {
	hub := NewHub()

	// A and B connect; both see {A, B}.
	a := connect(hub, "A")
	requirePresence(t, a, []string{"A"})

	b := connect(hub, "B")
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	// B disconnects; only A remains and sees {A}.
	b.close()
	requirePresence(t, a, []string{"A"})

	// A messages B while B is offline: zero pushes.
	hub.Deliver(MessageEvent{SenderID: "A", ReceiverID: "B", Text: "hi"})
	requireNoFrame(t, a)

	// B reconnects; presence shows {A, B} again.
	b2 := connect(hub, "B")
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b2, []string{"A", "B"})

	// The next message reaches B's new connection exactly once.
	hub.Deliver(MessageEvent{SenderID: "A", ReceiverID: "B", Text: "hi2"})

	env := nextFrame(t, b2)
	require.Equal(t, EventNewMessage, env.Event)

	var got MessageEvent
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, "hi2", got.Text)

	requireNoFrame(t, b2)
	requireNoFrame(t, a)
}

func TestTypingRelayReachesOnlinePeer(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	b := connect(hub, "B")

	requirePresence(t, a, []string{"A"})
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	frame, err := NewEnvelope(EventTyping, TypingPayload{ReceiverID: "B", Typing: true})
	require.NoError(t, err)
	a.dispatch(frame)

	env := nextFrame(t, b)
	require.Equal(t, EventTyping, env.Event)

	var typing TypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &typing))
	require.Equal(t, "A", typing.SenderID)
	require.True(t, typing.Typing)

	requireNoFrame(t, a)
}

func TestHandlerTableTornDownOnDisconnect(t *testing.T) {
	hub := NewHub()

	a := connect(hub, "A")
	b := connect(hub, "B")

	requirePresence(t, a, []string{"A"})
	requirePresence(t, a, []string{"A", "B"})
	requirePresence(t, b, []string{"A", "B"})

	a.close()
	requirePresence(t, b, []string{"B"})

	// Frames dispatched after the terminal transition find no handlers.
	frame, err := NewEnvelope(EventTyping, TypingPayload{ReceiverID: "B", Typing: true})
	require.NoError(t, err)
	a.dispatch(frame)

	requireNoFrame(t, b)
}
