/*
Package client is a Go client for the chat service: a REST client covering
the full HTTP surface and a Session controller managing the authenticated
real-time connection (see session.go).
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from the service's error envelope.
type APIError struct {
	Code    int
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// User is the public profile shape returned by auth and profile endpoints.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// Room is a joined or created room.
type Room struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	InviteToken string `json:"inviteToken"`
}

// Message is a stored chat message with its author's current display metadata.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"roomId"`
	UserID    int64     `json:"userId"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatarUrl"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendRequest is an incoming pending request.
type FriendRequest struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a room participant or a friend.
type Member struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// Client is the REST client. It is safe for concurrent use after SetToken;
// the token itself is written only by the session login/logout flow.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// New constructs a REST client against the given base URL (scheme + host,
// no trailing /api).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken attaches a session token to every subsequent request.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current session token, empty when logged out.
func (c *Client) Token() string { return c.token }

// envelope mirrors the service's standardized JSON response.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do issues the request and decodes the response envelope into out, which may
// be nil for endpoints with no payload.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if res.StatusCode >= 400 || env.Code != 0 {
		return &APIError{Code: env.Code, Message: env.Message, Status: res.StatusCode}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

// authResult is the payload of register and login.
type authResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and stores the issued session token.
func (c *Client) Register(ctx context.Context, username, password string) (User, error) {
	var out authResult
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return User{}, err
	}

	c.token = out.Token
	return out.User, nil
}

// Login verifies credentials and stores the issued session token.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	var out authResult
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return User{}, err
	}

	c.token = out.Token
	return out.User, nil
}

// Me returns the current profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, &out)
	return out.User, err
}

// UpdateNickname changes the display name.
func (c *Client) UpdateNickname(ctx context.Context, nickname string) error {
	return c.do(ctx, http.MethodPut, "/api/me/nickname", map[string]string{"nickname": nickname}, nil)
}

// ChangePassword replaces the password after verifying the old one.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/api/me/password", map[string]string{
		"oldPassword": oldPassword,
		"newPassword": newPassword,
	}, nil)
}

// Rooms lists the rooms the user participates in, ordered by id.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &out)
	return out.Rooms, err
}

// CreateRoom creates a group room and joins the caller.
func (c *Client) CreateRoom(ctx context.Context, name string) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"name": name}, &out)
	return out.Room, err
}

// RoomHistory returns the last stored messages of a room in ascending order.
func (c *Client) RoomHistory(ctx context.Context, roomID int64) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", roomID), nil, &out)
	return out.Messages, err
}

// Participants returns the member roster of a room.
func (c *Client) Participants(ctx context.Context, roomID int64) ([]Member, error) {
	var out struct {
		Participants []Member `json:"participants"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/participants", roomID), nil, &out)
	return out.Participants, err
}

// InviteToRoom adds another user to a room by username.
func (c *Client) InviteToRoom(ctx context.Context, roomID int64, username string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/invite", roomID),
		map[string]string{"username": username}, nil)
}

// JoinRoom joins a room via an invite link token.
func (c *Client) JoinRoom(ctx context.Context, roomID int64, inviteToken string) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/join", roomID),
		map[string]string{"inviteToken": inviteToken}, &out)
	return out.Room, err
}

// CreateDM resolves the DM room with a friend, creating it on first use.
func (c *Client) CreateDM(ctx context.Context, userID int64) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodPost, "/api/rooms/dm", map[string]int64{"userId": userID}, &out)
	return out.Room, err
}

// SendFriendRequest creates a pending request addressed to the named user.
func (c *Client) SendFriendRequest(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPost, "/api/friend-requests", map[string]string{"username": username}, nil)
}

// FriendRequests lists incoming pending requests, oldest first.
func (c *Client) FriendRequests(ctx context.Context) ([]FriendRequest, error) {
	var out struct {
		Requests []FriendRequest `json:"requests"`
	}
	err := c.do(ctx, http.MethodGet, "/api/friend-requests", nil, &out)
	return out.Requests, err
}

// AcceptFriendRequest records the friendship.
func (c *Client) AcceptFriendRequest(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/friend-requests/%d/accept", requestID), nil, nil)
}

// RejectFriendRequest deletes the request.
func (c *Client) RejectFriendRequest(ctx context.Context, requestID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/friend-requests/%d", requestID), nil, nil)
}

// Friends lists the user's friends.
func (c *Client) Friends(ctx context.Context) ([]Member, error) {
	var out struct {
		Friends []Member `json:"friends"`
	}
	err := c.do(ctx, http.MethodGet, "/api/friends", nil, &out)
	return out.Friends, err
}
