package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/app/user"
)

// fakeStore backs the real-time core with in-memory membership and profiles.
type fakeStore struct {
	mu       sync.Mutex
	members  map[int64]map[int64]bool
	profiles map[int64]store.User
	nextID   int64
	inserted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  make(map[int64]map[int64]bool),
		profiles: make(map[int64]store.User),
		nextID:   100,
	}
}

func (f *fakeStore) setMember(roomID, userID int64, member bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.members[roomID] == nil {
		f.members[roomID] = make(map[int64]bool)
	}
	f.members[roomID][userID] = member
}

func (f *fakeStore) IsParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID], nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, roomID, userID int64, content string) (int64, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.inserted = append(f.inserted, content)
	return f.nextID, time.Now().UTC(), nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.profiles[id]
	if !ok {
		return store.User{}, errors.New("user not found")
	}
	return u, nil
}

func (f *fakeStore) insertedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func newWiredClient(hub *Hub, fs *fakeStore, id int64, nickname string) *Client {
	return &Client{
		deps: Deps{Hub: hub, Store: fs},
		user: user.User{ID: id, Nickname: nickname},
		send: make(chan []byte, 16),
	}
}

func mustFrame(t *testing.T, eventType EventType, payload any) []byte {
	t.Helper()

	frame, err := EncodeEvent(eventType, payload)
	if err != nil {
		t.Fatalf("EncodeEvent(%s) error = %v", eventType, err)
	}
	return frame
}

// receiveEvent pops one queued frame, or fails when none is waiting.
func receiveEvent(t *testing.T, c *Client) Envelope {
	t.Helper()

	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("queued frame is not an envelope: %v", err)
		}
		return env
	default:
		t.Fatal("no frame queued for client")
		return Envelope{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case frame := <-c.send:
		t.Fatalf("unexpected frame queued: %s", frame)
	default:
	}
}

func TestClient_JoinRoom_RequiresMembership(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	c := newWiredClient(hub, fs, 1, "alice")

	c.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))

	if hub.Joined(5, c) {
		t.Error("non-participant subscribed to the room channel")
	}

	env := receiveEvent(t, c)
	if env.Type != EventError {
		t.Fatalf("event type = %s, want %s", env.Type, EventError)
	}

	var payload ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("error payload invalid: %v", err)
	}
	if payload.Message != "you are not a member of this room" {
		t.Errorf("error message = %q", payload.Message)
	}
}

func TestClient_JoinRoom_Participant(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	fs.setMember(5, 1, true)
	c := newWiredClient(hub, fs, 1, "alice")

	c.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))

	if !hub.Joined(5, c) {
		t.Error("participant was not subscribed to the room channel")
	}
	assertNoEvent(t, c)
}

func TestClient_ChatMessage_MembershipRevokedMidSession(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	fs.setMember(5, 1, true)
	fs.setMember(5, 2, true)

	sender := newWiredClient(hub, fs, 1, "alice")
	peer := newWiredClient(hub, fs, 2, "bob")
	sender.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))
	peer.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))

	// The roster changed after join; the next message must be refused.
	fs.setMember(5, 1, false)

	sender.processInboundFrame(mustFrame(t, EventChatMessage, ChatMessageInbound{RoomID: 5, Content: "still here?"}))

	if got := fs.insertedCount(); got != 0 {
		t.Errorf("inserted %d messages, want 0", got)
	}

	env := receiveEvent(t, sender)
	if env.Type != EventError {
		t.Errorf("sender event type = %s, want %s", env.Type, EventError)
	}
	assertNoEvent(t, peer)
}

func TestClient_ChatMessage_PersistsAndFansOut(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	fs.setMember(5, 1, true)
	fs.setMember(5, 2, true)

	// The stored nickname differs from the session's; recipients must see
	// the stored one.
	fs.profiles[1] = store.User{ID: 1, Nickname: "alice-renamed"}

	sender := newWiredClient(hub, fs, 1, "alice")
	peer := newWiredClient(hub, fs, 2, "bob")
	sender.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))
	peer.processInboundFrame(mustFrame(t, EventJoinRoom, JoinRoomPayload{RoomID: 5}))

	sender.processInboundFrame(mustFrame(t, EventChatMessage, ChatMessageInbound{RoomID: 5, Content: "hello"}))

	if got := fs.insertedCount(); got != 1 {
		t.Fatalf("inserted %d messages, want 1", got)
	}

	for _, c := range []*Client{sender, peer} {
		env := receiveEvent(t, c)
		if env.Type != EventChatMessage {
			t.Fatalf("client %d event type = %s, want %s", c.user.ID, env.Type, EventChatMessage)
		}

		var payload ChatMessageOutbound
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("outbound payload invalid: %v", err)
		}
		if payload.ID != 101 {
			t.Errorf("message id = %d, want 101", payload.ID)
		}
		if payload.RoomID != 5 || payload.UserID != 1 || payload.Content != "hello" {
			t.Errorf("payload = %+v", payload)
		}
		if payload.Nickname != "alice-renamed" {
			t.Errorf("nickname = %q, want the stored profile's", payload.Nickname)
		}
	}
}

func TestClient_ChatMessage_EmptyContent(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	fs.setMember(5, 1, true)
	c := newWiredClient(hub, fs, 1, "alice")

	c.processInboundFrame(mustFrame(t, EventChatMessage, ChatMessageInbound{RoomID: 5, Content: "   "}))

	if got := fs.insertedCount(); got != 0 {
		t.Errorf("inserted %d messages, want 0", got)
	}
	if env := receiveEvent(t, c); env.Type != EventError {
		t.Errorf("event type = %s, want %s", env.Type, EventError)
	}
}

func TestClient_UnsupportedWireVersion(t *testing.T) {
	hub := NewHub()
	fs := newFakeStore()
	c := newWiredClient(hub, fs, 1, "alice")

	c.processInboundFrame([]byte(`{"v":2,"type":"chatMessage","payload":{"roomId":5,"content":"hi"}}`))

	if env := receiveEvent(t, c); env.Type != EventError {
		t.Errorf("event type = %s, want %s", env.Type, EventError)
	}
	if got := fs.insertedCount(); got != 0 {
		t.Errorf("inserted %d messages, want 0", got)
	}
}
