/*
Package user contains the core data structure for an authenticated chat participant.

It defines the identity attached to a real-time connection after the token
handshake and the public profile shape exposed to clients.
*/
package user

// User represents the identity of a chat participant.
// Fields use JSON tags for serialization in WebSocket payloads.
type User struct {

	// ID is the account's database identifier.
	ID int64 `json:"id"`

	// Username is the immutable login name.
	Username string `json:"username,omitempty"`

	// Nickname is the mutable display name shown next to messages.
	Nickname string `json:"nickname"`

	// AvatarURL is the public URL of the user's avatar, empty if unset.
	AvatarURL string `json:"avatarUrl,omitempty"`
}
