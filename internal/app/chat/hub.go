/*
Package chat contains the real-time core: the room channel registry, the
per-connection client lifecycle, and message persistence with fan-out.

This file defines the Hub, the owned in-memory index from room id to the set
of currently connected sessions subscribed to that room. Membership in the
index is exactly "currently connected and has joined this room since
connecting"; durable room membership lives in the participants table.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
)

// Hub maps room ids to the live set of subscribed clients. A client may be
// subscribed to any number of rooms; disconnecting removes it from all of
// them. Access is guarded by mu; there is no capacity bound or eviction.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Client]struct{}

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logx.Logger().With().Str("component", "hub").Logger(),
	}
}

// Join subscribes the client to the room's channel. Idempotent: re-joining
// an already-joined room is a no-op.
func (h *Hub) Join(roomID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[roomID] = clients
	}

	if _, joined := clients[c]; joined {
		return
	}

	clients[c] = struct{}{}

	h.logger.Info().
		Int64("room_id", roomID).
		Int64("user_id", c.user.ID).
		Int("online", len(clients)).
		Msg("Client joined room channel.")
}

// Joined reports whether the client currently subscribes to the room.
func (h *Hub) Joined(roomID int64, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[roomID][c]
	return ok
}

// RemoveClient drops the client from every room channel it belongs to.
// Called once when the client's connection closes; a reconnect starts with
// no subscriptions.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
}

// removeLocked deletes the client from all room sets. Callers hold mu.
func (h *Hub) removeLocked(c *Client) {
	for roomID, clients := range h.rooms {
		if _, ok := clients[c]; !ok {
			continue
		}
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast queues the frame to every client currently subscribed to the
// room, including the sender. The send is non-blocking: a client whose queue
// is full is dropped from every room it joined and its queue closed,
// terminating its write pump. Removal from all rooms keeps later broadcasts
// away from the closed queue.
func (h *Hub) Broadcast(roomID int64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for c := range h.rooms[roomID] {
		if c.trySend(frame) {
			continue
		}

		h.logger.Warn().
			Int64("room_id", roomID).
			Int64("user_id", c.user.ID).
			Msg("Client send queue full, dropping client.")

		slow = append(slow, c)
	}

	for _, c := range slow {
		h.removeLocked(c)
		c.closeSend()
	}
}

// Online returns the number of live sessions subscribed to the room.
func (h *Hub) Online(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// Shutdown closes the send queue of every connected client, letting the
// write pumps drain and close their connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*Client]struct{})
	for _, clients := range h.rooms {
		for c := range clients {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			c.closeSend()
		}
	}
	h.rooms = make(map[int64]map[*Client]struct{})

	h.logger.Info().Int("clients", len(seen)).Msg("Hub shutdown complete.")
}
