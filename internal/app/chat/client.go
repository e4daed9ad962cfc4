/*
Package chat contains the realtime core of the server.

This file defines the Client struct, one live websocket connection bound to an
authenticated user. It runs the read/write pumps, dispatches inbound frames
through a per-connection handler table, and guarantees the disconnect path
runs exactly once no matter how many ways the connection dies.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"beamchat/internal/pkg/logx"
)

const (
	// timeout for a single write to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong before declaring the peer dead.
	pongWait = 60 * time.Second

	// frequency of server Ping frames.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 4096

	// size of the outbound send queue per connection.
	sendQueueSize = 256

	// CloseCodeSessionReplaced is a custom close code (4000-4999 range) sent
	// to a connection superseded by a newer one for the same user.
	CloseCodeSessionReplaced = 4001
)

// writeControlDeadline is the deadline for out-of-band control frames.
func writeControlDeadline() time.Time {
	return time.Now().Add(writeWait)
}

// EventHandler processes the payload of one inbound event kind.
type EventHandler func(data json.RawMessage)

// Client is a live websocket connection for one user session.
type Client struct {
	// userID is the authenticated owner of this connection.
	userID string

	// conn is the underlying websocket connection.
	conn *websocket.Conn

	// send queues outbound frames for the write pump. Pushes never block:
	// a full queue drops the frame rather than stalling a broadcast.
	send chan []byte

	// done is closed exactly once when the connection enters its terminal state.
	done chan struct{}

	// closeOnce guards the transition to the terminal state.
	closeOnce sync.Once

	// closeMsg is the close frame the write pump emits on shutdown. Written
	// inside closeOnce before done is closed.
	closeMsg []byte

	// onClose is invoked once from the terminal transition. The hub uses it
	// to unregister the connection and rebroadcast presence.
	onClose func(*Client)

	// handlersMu protects handlers.
	handlersMu sync.RWMutex

	// handlers maps inbound event kinds to their handler. Torn down
	// atomically on disconnect so no listener leaks across reconnects.
	handlers map[string]EventHandler

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. Pumps are not
// started; the hub starts them after registration.
func NewClient(conn *websocket.Conn, userID string) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("user_id", userID).
		Logger()

	return &Client{
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		closeMsg: websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		handlers: make(map[string]EventHandler),
		logger:   clientLogger,
	}
}

// UserID returns the authenticated owner of this connection.
func (c *Client) UserID() string {
	return c.userID
}

// Send queues a frame for delivery. It is fire-and-forget: frames to a closed
// connection or a full queue are dropped, and the drop never marks the user
// offline. Only an explicit disconnect changes presence.
func (c *Client) Send(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
	}
}

// On registers the handler for an inbound event kind, replacing any previous one.
func (c *Client) On(event string, handler EventHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.handlers[event] = handler
}

// Off removes the handler for an inbound event kind.
func (c *Client) Off(event string) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	delete(c.handlers, event)
}

// dispatch routes one inbound frame to its registered handler.
func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent an invalid frame")
		return
	}

	c.handlersMu.RLock()
	handler, ok := c.handlers[env.Event]
	c.handlersMu.RUnlock()

	if !ok {
		c.logger.Warn().Str("event", env.Event).Msg("Client sent an unsupported event")
		return
	}

	handler(env.Data)
}

// ReadPump reads frames until the connection dies, keeping the Pong deadline
// fresh. It blocks the caller; the terminal transition runs when it returns.
func (c *Client) ReadPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection read ended unexpectedly")
			}
			return
		}

		c.dispatch(raw)
	}
}

// WritePump drains the send queue onto the wire and emits periodic Pings.
// On shutdown it writes the close frame chosen by the terminal transition,
// then closes the underlying connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, c.closeMsg); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing close frame")
			}
			return
		}
	}
}

// Kick terminates the connection with a custom close frame telling the client
// its session was replaced by a newer connection.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", CloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Kicking connection")

	c.closeWith(websocket.FormatCloseMessage(CloseCodeSessionReplaced, reason))
}

// close runs the terminal transition with a normal close frame.
func (c *Client) close() {
	c.closeWith(nil)
}

// closeWith runs the terminal transition exactly once: tear down the handler
// table, notify the hub, and release the pumps. A non-nil closeMsg overrides
// the close frame the write pump emits.
func (c *Client) closeWith(closeMsg []byte) {
	c.closeOnce.Do(func() {
		c.handlersMu.Lock()
		c.handlers = make(map[string]EventHandler)
		c.handlersMu.Unlock()

		if closeMsg != nil {
			c.closeMsg = closeMsg
		}

		if c.onClose != nil {
			c.onClose(c)
		}

		close(c.done)
	})
}
