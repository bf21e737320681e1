package chat

import (
	"testing"

	"github.com/msshub-mirror/chat-app/internal/app/user"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
)

func init() {
	logx.InitGlobalLogger(true)
}

func newTestClient(id int64) *Client {
	return &Client{
		user: user.User{ID: id, Nickname: "tester"},
		send: make(chan []byte, 256),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.rooms == nil {
		t.Error("NewHub() rooms map is nil")
	}
}

func TestHub_Online_EmptyRoom(t *testing.T) {
	hub := NewHub()
	if online := hub.Online(1); online != 0 {
		t.Errorf("Online() for empty room = %d, want 0", online)
	}
}

func TestHub_Join(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)

	hub.Join(5, c)

	if !hub.Joined(5, c) {
		t.Error("Joined() = false after Join()")
	}
	if online := hub.Online(5); online != 1 {
		t.Errorf("Online() = %d, want 1", online)
	}
}

func TestHub_Join_Idempotent(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)

	hub.Join(5, c)
	hub.Join(5, c)

	if online := hub.Online(5); online != 1 {
		t.Errorf("Online() after double join = %d, want 1", online)
	}

	// A re-joined client must still receive each broadcast exactly once.
	hub.Broadcast(5, []byte("hello"))

	select {
	case <-c.send:
	default:
		t.Fatal("client did not receive broadcast")
	}

	select {
	case extra := <-c.send:
		t.Errorf("client received duplicate frame %q after re-join", extra)
	default:
	}
}

func TestHub_Broadcast_IncludesSender(t *testing.T) {
	hub := NewHub()
	sender := newTestClient(1)
	peer := newTestClient(2)

	hub.Join(5, sender)
	hub.Join(5, peer)

	frame := []byte(`{"v":1,"type":"chatMessage"}`)
	hub.Broadcast(5, frame)

	for _, c := range []*Client{sender, peer} {
		select {
		case got := <-c.send:
			if string(got) != string(frame) {
				t.Errorf("client %d received %q, want %q", c.user.ID, got, frame)
			}
		default:
			t.Errorf("client %d did not receive broadcast", c.user.ID)
		}
	}
}

func TestHub_Broadcast_RoomIsolation(t *testing.T) {
	hub := NewHub()
	inRoom := newTestClient(1)
	elsewhere := newTestClient(2)

	hub.Join(5, inRoom)
	hub.Join(6, elsewhere)

	hub.Broadcast(5, []byte("room five only"))

	select {
	case <-elsewhere.send:
		t.Error("client in another room received the broadcast")
	default:
	}

	select {
	case <-inRoom.send:
	default:
		t.Error("client in target room did not receive the broadcast")
	}
}

func TestHub_Broadcast_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{
		user: user.User{ID: 1},
		send: make(chan []byte), // unbuffered, never drained
	}
	hub.Join(5, slow)

	hub.Broadcast(5, []byte("x"))

	if hub.Joined(5, slow) {
		t.Error("slow client still joined after full-queue broadcast")
	}

	// The queue must be closed so the write pump terminates.
	if _, open := <-slow.send; open {
		t.Error("slow client send channel still open")
	}
}

func TestHub_Broadcast_DropsSlowClientFromAllRooms(t *testing.T) {
	hub := NewHub()
	slow := &Client{
		user: user.User{ID: 1},
		send: make(chan []byte), // unbuffered, never drained
	}
	peer := newTestClient(2)

	hub.Join(5, slow)
	hub.Join(6, slow)
	hub.Join(6, peer)

	hub.Broadcast(5, []byte("x"))

	if hub.Joined(5, slow) || hub.Joined(6, slow) {
		t.Error("dropped client still subscribed to a room")
	}

	// The next broadcast runs over the room the drop did not originate from.
	// It must reach the healthy peer and must not touch the closed queue.
	hub.Broadcast(6, []byte("y"))

	select {
	case got := <-peer.send:
		if string(got) != "y" {
			t.Errorf("peer received %q, want %q", got, "y")
		}
	default:
		t.Error("peer did not receive the broadcast after the drop")
	}

	// Direct events to the dropped client are discarded, not sent.
	slow.SendError("too slow")

	if _, open := <-slow.send; open {
		t.Error("dropped client send channel still open")
	}
}

func TestClient_TrySend_AfterClose(t *testing.T) {
	c := newTestClient(1)
	c.closeSend()
	c.closeSend()

	if c.trySend([]byte("x")) {
		t.Error("trySend succeeded on a closed queue")
	}
}

func TestHub_RemoveClient_AllRooms(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	other := newTestClient(2)

	hub.Join(5, c)
	hub.Join(6, c)
	hub.Join(6, other)

	hub.RemoveClient(c)

	if hub.Joined(5, c) || hub.Joined(6, c) {
		t.Error("removed client still joined to a room")
	}
	if hub.Online(5) != 0 {
		t.Errorf("Online(5) = %d, want 0", hub.Online(5))
	}
	if hub.Online(6) != 1 {
		t.Errorf("Online(6) = %d, want 1", hub.Online(6))
	}
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.Join(5, c)
	hub.Join(6, c)

	hub.Shutdown()

	if _, open := <-c.send; open {
		t.Error("send channel still open after shutdown")
	}
	if hub.Online(5) != 0 || hub.Online(6) != 0 {
		t.Error("rooms not empty after shutdown")
	}
}
