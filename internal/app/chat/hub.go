/*
Package chat contains the realtime core of the server.

This file defines the Hub, which owns the connection lifecycle: binding an
upgraded websocket to its user, announcing presence on every registry change,
and routing persisted messages to their recipient's live connection.
*/
package chat

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"beamchat/internal/pkg/logx"
)

// ErrInvalidHandshake is returned by Bind when the handshake carries no
// usable user id. The connection is closed and never registered.
var ErrInvalidHandshake = errors.New("handshake missing user id")

// Hub binds live connections to users and fans events out to them. It is
// constructed once at startup and injected into the HTTP handlers; tests
// build a fresh Hub per case for isolation.
type Hub struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewHub creates a Hub with an empty registry.
func NewHub() *Hub {
	hubLogger := logx.Logger().With().Str("component", "hub").Logger()

	return &Hub{
		registry: NewRegistry(),
		logger:   hubLogger,
	}
}

// Registry exposes the hub's connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Bind takes an upgraded connection and the user id extracted from its
// handshake, registers it, announces presence, and runs the connection's
// pumps. It blocks until the connection dies, mirroring the HTTP handler's
// lifetime. A blank user id rejects the connection with ErrInvalidHandshake
// before any registry mutation or broadcast.
func (h *Hub) Bind(conn *websocket.Conn, rawUserID string) error {
	userID := strings.TrimSpace(rawUserID)
	if userID == "" {
		h.logger.Warn().Msg("Rejected connection: handshake missing user id")

		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "missing user id"),
			writeControlDeadline(),
		)
		conn.Close()

		return ErrInvalidHandshake
	}

	client := NewClient(conn, userID)
	h.attach(client)

	go client.WritePump()
	client.ReadPump()

	return nil
}

// attach registers a connection and announces the new online set. A fresh
// handshake for an already-online user supersedes the old connection: the
// replaced socket gets a 4001 close frame, and its stale disconnect callback
// is filtered by the registry's instance check.
func (h *Hub) attach(client *Client) {
	client.onClose = h.drop
	client.On(EventTyping, h.typingRelay(client))

	if replaced := h.registry.Register(client.UserID(), client); replaced != nil {
		replaced.Kick("session replaced by a newer connection")
	}

	h.logger.Info().
		Str("user_id", client.UserID()).
		Int("online", h.registry.Len()).
		Msg("Connection registered")

	h.Announce()
}

// drop is the disconnect callback for every bound connection. The unregister
// is guarded by instance identity: a callback from a replaced connection is a
// no-op and triggers no broadcast, because the online set did not change.
func (h *Hub) drop(client *Client) {
	if !h.registry.Unregister(client.UserID(), client) {
		h.logger.Info().
			Str("user_id", client.UserID()).
			Msg("Ignoring disconnect of a stale connection")
		return
	}

	h.logger.Info().
		Str("user_id", client.UserID()).
		Int("online", h.registry.Len()).
		Msg("Connection unregistered")

	h.Announce()
}

// Announce pushes the full current online-user set to every registered
// connection. The snapshot is recomputed fresh on each call and the pushes
// happen outside the registry lock.
func (h *Hub) Announce() {
	ids := h.registry.SnapshotUserIDs()

	payload, err := NewEnvelope(EventOnlineUsers, ids)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build presence announcement")
		return
	}

	for _, client := range h.registry.snapshotClients() {
		client.Send(payload)
	}
}

// Deliver routes a persisted message to its recipient's live connection.
// It must be called only after the message row is durably committed. An
// offline recipient is a silent drop: history is served by the fetch path.
// The sender's own connection is never pushed to.
func (h *Hub) Deliver(event MessageEvent) {
	if event.ReceiverID == event.SenderID {
		return
	}

	recipient, ok := h.registry.Lookup(event.ReceiverID)
	if !ok {
		h.logger.Debug().
			Str("receiver_id", event.ReceiverID).
			Msg("Recipient offline, message not pushed")
		return
	}

	payload, err := NewEnvelope(EventNewMessage, event)
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", event.ID).Msg("Failed to build message push")
		return
	}

	recipient.Send(payload)
}

// typingRelay forwards a typing indicator from client to the peer named in
// the payload, if that peer is online. Exercises the per-connection handler
// table; the relay dies with the connection.
func (h *Hub) typingRelay(client *Client) EventHandler {
	return func(data json.RawMessage) {
		var typing TypingPayload
		if err := json.Unmarshal(data, &typing); err != nil {
			h.logger.Warn().Err(err).Str("user_id", client.UserID()).Msg("Invalid typing payload")
			return
		}

		if typing.ReceiverID == "" || typing.ReceiverID == client.UserID() {
			return
		}

		peer, ok := h.registry.Lookup(typing.ReceiverID)
		if !ok {
			return
		}

		payload, err := NewEnvelope(EventTyping, TypingPayload{
			SenderID: client.UserID(),
			Typing:   typing.Typing,
		})
		if err != nil {
			return
		}

		peer.Send(payload)
	}
}

// Shutdown closes every live connection. Called after the HTTP server has
// drained so no new handshakes race the teardown.
func (h *Hub) Shutdown() {
	h.logger.Info().Int("online", h.registry.Len()).Msg("Shutting down hub")

	for _, client := range h.registry.snapshotClients() {
		client.close()
	}

	h.logger.Info().Msg("Hub shutdown complete")
}
