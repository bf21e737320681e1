/*
Package chat contains the real-time core: the room channel registry, the
per-connection client lifecycle, and message persistence with fan-out.

This file defines the wire schema of the bidirectional event channel. Every
frame is a versioned envelope with an explicit type and a named payload, so
fields cannot silently appear or vanish between revisions.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// WireVersion is the current version of the event envelope.
const WireVersion = 1

// EventType discriminates the payload of an Envelope.
type EventType string

const (
	// EventJoinRoom (client -> server) requests subscription to a room's
	// live channel. The server replies only on failure, with EventError.
	EventJoinRoom EventType = "joinRoom"

	// EventChatMessage is bidirectional: inbound it submits a message,
	// outbound it delivers a persisted message to every joined session.
	EventChatMessage EventType = "chatMessage"

	// EventError (server -> client) reports a failure to the requesting
	// session only. The connection stays open.
	EventError EventType = "errorMessage"
)

// Envelope is the frame exchanged over the websocket.
type Envelope struct {
	V       int             `json:"v"`
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomPayload is the inbound payload of EventJoinRoom.
type JoinRoomPayload struct {
	RoomID int64 `json:"roomId"`
}

// ChatMessageInbound is the inbound payload of EventChatMessage.
type ChatMessageInbound struct {
	RoomID  int64  `json:"roomId"`
	Content string `json:"content"`
}

// ChatMessageOutbound is the outbound payload of EventChatMessage. It carries
// the server-assigned message id so clients can de-duplicate a message seen
// both via history fetch and live delivery.
type ChatMessageOutbound struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	UserID    int64     `json:"userId"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload is the outbound payload of EventError.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EncodeEvent marshals a typed payload into a versioned envelope frame.
func EncodeEvent(eventType EventType, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return json.Marshal(Envelope{
		V:       WireVersion,
		Type:    eventType,
		Payload: payloadBytes,
	})
}
