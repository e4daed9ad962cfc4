/*
Package chat contains the realtime core of the server: the mapping between
authenticated users and their live websocket connections, presence broadcasting,
and direct message delivery.

This file defines the wire protocol shared with browser clients. Every frame,
inbound or outbound, is an Envelope naming an event kind and carrying a JSON
payload.
*/
package chat

import (
	"encoding/json"
	"time"
)

// Event kinds pushed to or received from clients.
const (
	// EventOnlineUsers carries the full set of currently online user ids.
	// Clients treat each announcement as authoritative, not as a delta.
	EventOnlineUsers = "getOnlineUsers"

	// EventNewMessage carries a persisted message delivered live to its recipient.
	EventNewMessage = "newMessage"

	// EventTyping carries a typing indicator relayed between two peers.
	EventTyping = "typing"
)

// Envelope is the frame exchanged over the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an Envelope frame ready to send.
func NewEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Event: event,
		Data:  raw,
	})
}

// MessageEvent is a durably persisted chat message handed to the router for
// live delivery. The core never constructs message content itself; the
// persistence layer builds this record after the insert commits.
type MessageEvent struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TypingPayload is the typing-indicator payload. Clients send it with the
// peer's id in receiverId; the relayed copy carries the origin in senderId.
type TypingPayload struct {
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
	Typing     bool   `json:"typing"`
}
