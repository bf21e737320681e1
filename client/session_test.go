package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msshub-mirror/chat-app/internal/app/chat"
)

// fakeServer emulates the chat service: a login endpoint, a history
// endpoint and a live channel that answers joinRoom with two pushed
// messages and echoes chatMessage submissions with server-assigned ids.
type fakeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	joined   chan int64
	inbound  chan chat.ChatMessageInbound
	pushDone chan struct{}
	closed   chan struct{}

	nextID int64
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{
		t:        t,
		joined:   make(chan int64, 8),
		inbound:  make(chan chat.ChatMessageInbound, 8),
		pushDone: make(chan struct{}),
		closed:   make(chan struct{}, 8),
		nextID:   100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", fs.handleLogin)
	mux.HandleFunc("/api/rooms/1/messages", fs.handleHistory)
	mux.HandleFunc("/ws", fs.handleWS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func (fs *fakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, map[string]any{
		"token": "test-token",
		"user":  User{ID: 1, Username: "alice", Nickname: "alice"},
	})
}

// handleHistory blocks until the live pushes raced in, so the merge path is
// exercised deterministically.
func (fs *fakeServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	select {
	case <-fs.pushDone:
	case <-time.After(2 * time.Second):
		fs.t.Error("history requested before any joinRoom was processed")
	}

	writeEnvelope(w, http.StatusOK, map[string]any{
		"messages": []Message{
			{ID: 1, RoomID: 1, UserID: 2, Nickname: "bob", Content: "first", CreatedAt: time.Now().UTC()},
			{ID: 2, RoomID: 1, UserID: 2, Nickname: "bob", Content: "second", CreatedAt: time.Now().UTC()},
		},
	})
}

func (fs *fakeServer) pushMessage(conn *websocket.Conn, id int64, content string) {
	frame, err := chat.EncodeEvent(chat.EventChatMessage, chat.ChatMessageOutbound{
		ID:        id,
		RoomID:    1,
		UserID:    2,
		Nickname:  "bob",
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		fs.t.Errorf("encode push failed: %v", err)
		return
	}
	fs.mu.Lock()
	conn.WriteMessage(websocket.TextMessage, frame)
	fs.mu.Unlock()
}

func (fs *fakeServer) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { fs.closed <- struct{}{} }()

	fs.mu.Lock()
	fs.conn = conn
	fs.mu.Unlock()

	var pushOnce sync.Once

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env chat.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			fs.t.Errorf("server received invalid frame: %v", err)
			continue
		}

		switch env.Type {
		case chat.EventJoinRoom:
			var payload chat.JoinRoomPayload
			json.Unmarshal(env.Payload, &payload)
			fs.joined <- payload.RoomID

			// Simulate live delivery racing the history fetch: message 2
			// is also in history, message 3 is newer.
			pushOnce.Do(func() {
				fs.pushMessage(conn, 2, "second")
				fs.pushMessage(conn, 3, "third")
				close(fs.pushDone)
			})

		case chat.EventChatMessage:
			var payload chat.ChatMessageInbound
			json.Unmarshal(env.Payload, &payload)
			fs.inbound <- payload

			fs.nextID++
			fs.pushMessage(conn, fs.nextID, payload.Content)
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSession_ViewStateMachine(t *testing.T) {
	session := NewSession("http://localhost:0")

	if session.View() != ViewLogin {
		t.Fatalf("initial view = %v, want ViewLogin", session.View())
	}

	session.SwitchToRegister()
	if session.View() != ViewRegister {
		t.Errorf("view = %v after SwitchToRegister, want ViewRegister", session.View())
	}

	session.SwitchToLogin()
	if session.View() != ViewLogin {
		t.Errorf("view = %v after SwitchToLogin, want ViewLogin", session.View())
	}
}

func TestSession_LoginEntersChat(t *testing.T) {
	_, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if session.View() != ViewChat {
		t.Errorf("view = %v after login, want ViewChat", session.View())
	}
	if session.User().ID != 1 {
		t.Errorf("user id = %d, want 1", session.User().ID)
	}
	if session.API().Token() == "" {
		t.Error("token not stored after login")
	}
}

func TestSession_SelectRoomMergesHistoryAndLive(t *testing.T) {
	fs, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := session.SelectRoom(context.Background(), 1); err != nil {
		t.Fatalf("SelectRoom() error = %v", err)
	}

	select {
	case roomID := <-fs.joined:
		if roomID != 1 {
			t.Errorf("server saw joinRoom for room %d, want 1", roomID)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received joinRoom")
	}

	// History holds ids 1 and 2; the live channel pushed 2 and 3. The log
	// must converge to exactly 1, 2, 3 in order.
	waitFor(t, time.Second, func() bool {
		return len(session.Messages()) == 3
	})

	msgs := session.Messages()
	for i, wantID := range []int64{1, 2, 3} {
		if msgs[i].ID != wantID {
			t.Errorf("log[%d].ID = %d, want %d (log %+v)", i, msgs[i].ID, wantID, msgs)
		}
	}
}

func TestSession_SendAndEcho(t *testing.T) {
	fs, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := session.SelectRoom(context.Background(), 1); err != nil {
		t.Fatalf("SelectRoom() error = %v", err)
	}

	if err := session.Send("hello there"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-fs.inbound:
		if got.RoomID != 1 || got.Content != "hello there" {
			t.Errorf("server received %+v, want room 1 content %q", got, "hello there")
		}
	case <-time.After(time.Second):
		t.Fatal("server never received chatMessage")
	}

	waitFor(t, time.Second, func() bool {
		msgs := session.Messages()
		return len(msgs) > 0 && msgs[len(msgs)-1].Content == "hello there"
	})
}

func TestSession_SendWithoutRoom(t *testing.T) {
	_, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := session.Send("into the void"); err == nil {
		t.Error("Send() without a selected room succeeded, want error")
	}
}

func TestSession_ReloginClosesPreviousConnection(t *testing.T) {
	fs, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	// The first connection must be torn down, not leaked.
	select {
	case <-fs.closed:
	case <-time.After(time.Second):
		t.Fatal("previous connection was not closed on re-login")
	}

	if session.View() != ViewChat {
		t.Errorf("view = %v after re-login, want ViewChat", session.View())
	}
}

func TestSession_Logout(t *testing.T) {
	_, srv := newFakeServer(t)
	session := NewSession(srv.URL)

	if err := session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	session.Logout()

	if session.View() != ViewLogin {
		t.Errorf("view = %v after logout, want ViewLogin", session.View())
	}
	if session.API().Token() != "" {
		t.Error("token still set after logout")
	}
	if len(session.Messages()) != 0 {
		t.Error("message log not cleared after logout")
	}
	if session.CurrentRoom() != 0 {
		t.Error("room selection not cleared after logout")
	}
}

func TestAPIError_Formatting(t *testing.T) {
	err := &APIError{Code: 3001, Message: "Please sign in to continue.", Status: 401}
	want := fmt.Sprintf("api error %d (HTTP %d): %s", 3001, 401, "Please sign in to continue.")
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
