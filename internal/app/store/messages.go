package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// HistoryLimit caps every history read at the most recent messages per room.
const HistoryLimit = 100

// Message is a persisted chat message joined with its author's current
// display metadata. Nickname and avatar are not snapshotted per message; a
// profile change shows up in every later read.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Nickname  string
	AvatarURL pgtype.Text
	Content   string
	CreatedAt time.Time
}

const insertMessage = `
INSERT INTO messages (room_id, user_id, content)
VALUES ($1, $2, $3)
RETURNING id, created_at
`

// InsertMessage appends a message with a server-assigned timestamp and
// returns its id and creation time.
func (s *Store) InsertMessage(ctx context.Context, roomID, userID int64, content string) (id int64, createdAt time.Time, err error) {
	err = s.db.QueryRow(ctx, insertMessage, roomID, userID, content).Scan(&id, &createdAt)
	return id, createdAt, err
}

const listRecentMessages = `
SELECT id, room_id, user_id, nickname, avatar_url, content, created_at
FROM (
    SELECT m.id, m.room_id, m.user_id, u.nickname, u.avatar_url, m.content, m.created_at
    FROM messages m
    JOIN users u ON u.id = m.user_id
    WHERE m.room_id = $1
    ORDER BY m.created_at DESC, m.id DESC
    LIMIT $2
) recent
ORDER BY created_at ASC, id ASC
`

// ListRecentMessages returns the most recent messages of a room in ascending
// creation order. Insertion order is the only ordering truth for history.
func (s *Store) ListRecentMessages(ctx context.Context, roomID int64) ([]Message, error) {
	rows, err := s.db.Query(ctx, listRecentMessages, roomID, HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Nickname, &m.AvatarURL, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
