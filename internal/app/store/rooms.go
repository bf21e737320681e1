package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// GeneralRoomName is the default room every new account joins. The row is
// provisioned by the schema migration.
const GeneralRoomName = "General"

// Room is a row of the rooms table. InviteToken is set only for group rooms.
type Room struct {
	ID          int64
	Name        string
	CreatedBy   int64
	InviteToken pgtype.Text
	CreatedAt   time.Time
}

const createRoom = `
INSERT INTO rooms (name, created_by, invite_token)
VALUES ($1, $2, $3)
RETURNING id, name, created_by, invite_token, created_at
`

func (s *Store) CreateRoom(ctx context.Context, name string, createdBy int64, inviteToken string) (Room, error) {
	var r Room
	token := pgtype.Text{String: inviteToken, Valid: inviteToken != ""}
	err := s.db.QueryRow(ctx, createRoom, name, createdBy, token).
		Scan(&r.ID, &r.Name, &r.CreatedBy, &r.InviteToken, &r.CreatedAt)
	return r, err
}

const getRoomByID = `
SELECT id, name, created_by, invite_token, created_at
FROM rooms WHERE id = $1
`

func (s *Store) GetRoomByID(ctx context.Context, id int64) (Room, error) {
	var r Room
	err := s.db.QueryRow(ctx, getRoomByID, id).
		Scan(&r.ID, &r.Name, &r.CreatedBy, &r.InviteToken, &r.CreatedAt)
	return r, err
}

const getGeneralRoomID = `SELECT id FROM rooms WHERE name = $1 AND created_by = 0 LIMIT 1`

// GetGeneralRoomID looks up the provisioned default room.
func (s *Store) GetGeneralRoomID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, getGeneralRoomID, GeneralRoomName).Scan(&id)
	return id, err
}

const listRoomsForUser = `
SELECT r.id, r.name, r.created_by, r.invite_token, r.created_at
FROM rooms r
JOIN participants p ON p.room_id = r.id
WHERE p.user_id = $1
ORDER BY r.id
`

// ListRoomsForUser returns every room the user participates in, ordered by id.
func (s *Store) ListRoomsForUser(ctx context.Context, userID int64) ([]Room, error) {
	rows, err := s.db.Query(ctx, listRoomsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedBy, &r.InviteToken, &r.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

const addParticipant = `
INSERT INTO participants (room_id, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

// AddParticipant records membership. Idempotent: re-adding an existing
// participant is a no-op.
func (s *Store) AddParticipant(ctx context.Context, roomID, userID int64) error {
	_, err := s.db.Exec(ctx, addParticipant, roomID, userID)
	return err
}

const isParticipant = `SELECT EXISTS (SELECT 1 FROM participants WHERE room_id = $1 AND user_id = $2)`

// IsParticipant is the sole authorization fact for both history reads and
// real-time joins.
func (s *Store) IsParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, isParticipant, roomID, userID).Scan(&ok)
	return ok, err
}

const listParticipants = `
SELECT u.id, u.username, u.nickname
FROM participants p
JOIN users u ON u.id = p.user_id
WHERE p.room_id = $1
ORDER BY u.id
`

// Member is the public slice of a user exposed in participant and friend lists.
type Member struct {
	ID       int64
	Username string
	Nickname string
}

func (s *Store) ListParticipants(ctx context.Context, roomID int64) ([]Member, error) {
	rows, err := s.db.Query(ctx, listParticipants, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Nickname); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
