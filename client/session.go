package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/msshub-mirror/chat-app/internal/app/chat"
)

// View is the coarse UI state of a session.
type View int

const (
	// ViewLogin is the unauthenticated credential prompt.
	ViewLogin View = iota

	// ViewRegister is the unauthenticated account creation form.
	ViewRegister

	// ViewChat is the authenticated state with a live connection.
	ViewChat
)

// Session drives one authenticated chat session: the view state machine, a
// single WebSocket connection, and the message log of the selected room.
//
// The log is append-only and de-duplicated by message id, so a message seen
// both in the history fetch and in live delivery appears once. Rendering is
// the caller's concern; OnChange signals that the log or view changed.
type Session struct {
	api   *Client
	wsURL string

	mu          sync.Mutex
	view        View
	user        User
	conn        *websocket.Conn
	writeMu     sync.Mutex
	currentRoom int64
	log         []Message
	seen        map[int64]struct{}
	onChange    func()
	onError     func(string)
}

// NewSession constructs a session against the given base URL.
func NewSession(baseURL string) *Session {
	trimmed := strings.TrimSuffix(baseURL, "/")

	wsURL := trimmed
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)

	return &Session{
		api:   New(trimmed),
		wsURL: wsURL + "/ws",
		view:  ViewLogin,
		seen:  make(map[int64]struct{}),
	}
}

// API exposes the underlying REST client for operations that need no session
// state (friend management, room creation, profile updates).
func (s *Session) API() *Client { return s.api }

// View returns the current view state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// User returns the authenticated profile; zero value before login.
func (s *Session) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// CurrentRoom returns the selected room id, zero when none is selected.
func (s *Session) CurrentRoom() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRoom
}

// OnChange registers the change notification callback. It is invoked after
// every log or view mutation, from the mutating goroutine.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// OnError registers the callback for server error events on the live channel.
func (s *Session) OnError(fn func(string)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// SwitchToRegister moves login -> register.
func (s *Session) SwitchToRegister() {
	s.setView(ViewRegister)
}

// SwitchToLogin moves register -> login.
func (s *Session) SwitchToLogin() {
	s.setView(ViewLogin)
}

func (s *Session) setView(v View) {
	s.mu.Lock()
	s.view = v
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Login authenticates, opens the live connection and enters the chat view.
func (s *Session) Login(ctx context.Context, username, password string) error {
	u, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.enterChat(u)
}

// Register creates the account, opens the live connection and enters the
// chat view. The server has already joined the account to the default room.
func (s *Session) Register(ctx context.Context, username, password string) error {
	u, err := s.api.Register(ctx, username, password)
	if err != nil {
		return err
	}
	return s.enterChat(u)
}

func (s *Session) enterChat(u User) error {
	header := http.Header{}
	dialURL := fmt.Sprintf("%s?token=%s", s.wsURL, s.api.Token())

	conn, _, err := websocket.DefaultDialer.Dial(dialURL, header)
	if err != nil {
		s.api.SetToken("")
		return fmt.Errorf("failed to open live connection: %w", err)
	}

	s.mu.Lock()
	old := s.conn
	s.user = u
	s.conn = conn
	s.view = ViewChat
	s.currentRoom = 0
	s.log = nil
	s.seen = make(map[int64]struct{})
	notify := s.onChange
	s.mu.Unlock()

	// A repeated login replaces the live connection; closing the old one
	// terminates its read loop.
	if old != nil {
		old.Close()
	}

	go s.readLoop(conn)

	if notify != nil {
		notify()
	}
	return nil
}

// readLoop consumes the live channel until the connection closes.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env chat.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			continue
		}

		switch env.Type {
		case chat.EventChatMessage:
			var payload chat.ChatMessageOutbound
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			s.appendMessage(Message{
				ID:        payload.ID,
				RoomID:    payload.RoomID,
				UserID:    payload.UserID,
				Nickname:  payload.Nickname,
				AvatarURL: payload.AvatarURL,
				Content:   payload.Content,
				CreatedAt: payload.CreatedAt,
			})

		case chat.EventError:
			var payload chat.ErrorPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				continue
			}
			s.mu.Lock()
			notify := s.onError
			s.mu.Unlock()
			if notify != nil {
				notify(payload.Message)
			}
		}
	}
}

// appendMessage adds a live message to the log if it belongs to the selected
// room and has not been seen.
func (s *Session) appendMessage(m Message) {
	s.mu.Lock()
	if m.RoomID != s.currentRoom {
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[m.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[m.ID] = struct{}{}
	s.log = append(s.log, m)
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// writeEvent serializes writes to the shared connection.
func (s *Session) writeEvent(eventType chat.EventType, payload any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("no live connection")
	}

	frame, err := chat.EncodeEvent(eventType, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// SelectRoom switches the active room: the local log is cleared, the live
// channel is joined, and the last stored messages are fetched and merged
// with any live message that raced in, de-duplicated by message id.
func (s *Session) SelectRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	s.currentRoom = roomID
	s.log = nil
	s.seen = make(map[int64]struct{})
	s.mu.Unlock()

	if err := s.writeEvent(chat.EventJoinRoom, chat.JoinRoomPayload{RoomID: roomID}); err != nil {
		return err
	}

	history, err := s.api.RoomHistory(ctx, roomID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.currentRoom != roomID {
		// the user moved on while the fetch was in flight
		s.mu.Unlock()
		return nil
	}

	merged := make([]Message, 0, len(history)+len(s.log))
	seen := make(map[int64]struct{}, len(history)+len(s.log))
	for _, m := range history {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range s.log {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}

	s.log = merged
	s.seen = seen
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// Send submits a message to the selected room over the live channel.
func (s *Session) Send(content string) error {
	s.mu.Lock()
	roomID := s.currentRoom
	s.mu.Unlock()

	if roomID == 0 {
		return fmt.Errorf("no room selected")
	}

	return s.writeEvent(chat.EventChatMessage, chat.ChatMessageInbound{
		RoomID:  roomID,
		Content: content,
	})
}

// StartDM resolves the DM room with a friend and selects it.
func (s *Session) StartDM(ctx context.Context, friendID int64) (Room, error) {
	room, err := s.api.CreateDM(ctx, friendID)
	if err != nil {
		return Room{}, err
	}

	return room, s.SelectRoom(ctx, room.ID)
}

// Messages returns a copy of the current log in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.log))
	copy(out, s.log)
	return out
}

// Logout tears down the connection and returns to the login view. The token
// is discarded client-side; the server keeps no session state.
func (s *Session) Logout() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.user = User{}
	s.currentRoom = 0
	s.log = nil
	s.seen = make(map[int64]struct{})
	s.view = ViewLogin
	notify := s.onChange
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.api.SetToken("")

	if notify != nil {
		notify()
	}
}
