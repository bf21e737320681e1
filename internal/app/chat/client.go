/*
Package chat contains the real-time core: the room channel registry, the
per-connection client lifecycle, and message persistence with fan-out.

This file defines the Client struct, representing an active WebSocket
connection. It manages the connection's lifecycle, the message communication
loops (ReadPump and WritePump), and inbound event dispatch.
*/
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/app/storage"
	"github.com/msshub-mirror/chat-app/internal/app/user"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size (in bytes) for message content.
	MaxContentBytes = 5000
)

// Store is the persistence surface the real-time core depends on. The
// Postgres-backed store implements it.
type Store interface {
	IsParticipant(ctx context.Context, roomID, userID int64) (bool, error)
	InsertMessage(ctx context.Context, roomID, userID int64, content string) (int64, time.Time, error)
	GetUserByID(ctx context.Context, id int64) (store.User, error)
}

// Deps bundles the shared services a Client needs to serve its events.
type Deps struct {
	Hub   *Hub
	Store Store

	// AssetBaseURL prefixes stored avatar keys into public URLs on outbound
	// messages.
	AssetBaseURL string
}

// Client represents an active WebSocket connection and its authenticated user.
type Client struct {
	deps Deps

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// authenticated identity attached at upgrade time.
	user user.User

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// sendMu serializes queueing against close(send). Once dropped is set the
	// channel is closed and no send may touch it again; the hub, the shutdown
	// path and the disconnect path may all try to drop the same client.
	sendMu  sync.Mutex
	dropped bool

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(deps Deps, wsConn *websocket.Conn, u user.User) *Client {
	clientLogger := logx.Logger().With().
		Int64("user_id", u.ID).
		Str("nickname", u.Nickname).
		Logger()

	return &Client{
		deps:   deps,
		conn:   wsConn,
		user:   u,
		send:   make(chan []byte, 256),
		logger: clientLogger,
	}
}

// closeSend closes the outbound queue exactly once, terminating the
// WritePump. Subsequent trySend calls report failure instead of touching the
// closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.dropped {
		return
	}
	c.dropped = true
	close(c.send)
}

// trySend queues a frame without blocking. It reports false when the queue is
// full or the client has already been dropped.
func (c *Client) trySend(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.dropped {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), event dispatch, and performs cleanup upon
// connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (Client close/going away)")
			}
			break
		}

		c.processInboundFrame(messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's
// ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.deps.Hub.RemoveClient(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame decodes the envelope and dispatches by event type.
func (c *Client) processInboundFrame(messageBytes []byte) {
	var env Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	if env.V != WireVersion {
		c.logger.Warn().Int("wire_version", env.V).Msg("Client sent unsupported wire version")
		c.SendError("unsupported protocol version")
		return
	}

	switch env.Type {
	case EventJoinRoom:
		c.handleJoinRoom(env.Payload)

	case EventChatMessage:
		c.handleChatMessage(env.Payload)

	default:
		c.logger.Warn().Str("event_type", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// handleJoinRoom subscribes the session to a room's live channel after
// verifying durable membership. Joining never implies membership; the roster
// only changes through the HTTP surface.
func (c *Client) handleJoinRoom(payloadBytes json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid joinRoom payload")
		return
	}

	// Connection lifetime is the operation's scope here, not an HTTP
	// request, so lookups run without a deadline.
	ok, err := c.deps.Store.IsParticipant(context.Background(), payload.RoomID, c.user.ID)
	if err != nil {
		c.logger.Error().Err(err).Int64("room_id", payload.RoomID).Msg("Failed to check room membership")
		c.SendError("failed to join room")
		return
	}

	if !ok {
		c.logger.Warn().Int64("room_id", payload.RoomID).Msg("Client tried to join a room it is not a member of")
		c.SendError("you are not a member of this room")
		return
	}

	c.deps.Hub.Join(payload.RoomID, c)
}

// handleChatMessage persists an inbound message and fans it out to every
// session joined to the room, the sender included. Membership is re-checked
// per message so a roster change takes effect immediately.
func (c *Client) handleChatMessage(payloadBytes json.RawMessage) {
	var payload ChatMessageInbound
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid chatMessage payload")
		return
	}

	if strings.TrimSpace(payload.Content) == "" {
		c.SendError("message content must not be empty")
		return
	}

	if len(payload.Content) > MaxContentBytes {
		c.SendError("message content too long")
		return
	}

	ctx := context.Background()

	ok, err := c.deps.Store.IsParticipant(ctx, payload.RoomID, c.user.ID)
	if err != nil {
		c.logger.Error().Err(err).Int64("room_id", payload.RoomID).Msg("Failed to check room membership")
		c.SendError("failed to send message")
		return
	}

	if !ok {
		c.SendError("you are not a member of this room")
		return
	}

	msgID, createdAt, err := c.deps.Store.InsertMessage(ctx, payload.RoomID, c.user.ID, payload.Content)
	if err != nil {
		c.logger.Error().Err(err).Int64("room_id", payload.RoomID).Msg("Failed to persist message")
		c.SendError("failed to send message")
		return
	}

	// Read the author's profile back so a just-changed nickname or avatar is
	// what every recipient sees.
	author, err := c.deps.Store.GetUserByID(ctx, c.user.ID)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load author profile, using session identity")
		author = store.User{
			ID:       c.user.ID,
			Nickname: c.user.Nickname,
		}
	}

	frame, err := EncodeEvent(EventChatMessage, ChatMessageOutbound{
		ID:        msgID,
		RoomID:    payload.RoomID,
		UserID:    c.user.ID,
		Nickname:  author.Nickname,
		AvatarURL: storage.PublicURL(c.deps.AssetBaseURL, author.AvatarURL.String),
		Content:   payload.Content,
		CreatedAt: createdAt,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode outbound message")
		return
	}

	c.deps.Hub.Broadcast(payload.RoomID, frame)
}

// WritePump handles writing frames from the Client.send channel to the
// WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedFrame(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them
// to the WebSocket. Returns true if the WritePump loop should continue, false
// if it should terminate.
func (c *Client) writeQueuedFrame(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the
// connection heartbeat. Returns false if the WritePump loop should terminate
// due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// SendError queues an errorMessage event to this session only. The
// connection stays open.
func (c *Client) SendError(message string) {
	frame, err := EncodeEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode error event")
		return
	}

	if !c.trySend(frame) {
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue unavailable, dropping error event")
	}
}
