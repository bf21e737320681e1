package store

import (
	"context"
	"fmt"

	"github.com/msshub-mirror/chat-app/internal/app/db"
)

// DMRoomName derives the display name of a direct-message room from the
// sorted participant pair. Identity lives in the dm_rooms mapping, not here.
func DMRoomName(a, b int64) string {
	lo, hi := SortPair(a, b)
	return fmt.Sprintf("dm_%d_%d", lo, hi)
}

const getDMRoomID = `SELECT room_id FROM dm_rooms WHERE user_lo = $1 AND user_hi = $2`

func (s *Store) GetDMRoomID(ctx context.Context, a, b int64) (int64, error) {
	lo, hi := SortPair(a, b)
	var id int64
	err := s.db.QueryRow(ctx, getDMRoomID, lo, hi).Scan(&id)
	return id, err
}

const insertDMRoom = `INSERT INTO dm_rooms (user_lo, user_hi, room_id) VALUES ($1, $2, $3)`

// GetOrCreateDMRoom returns the DM room id for the pair, creating the room,
// the pair mapping and both participant rows in one transaction on first use.
// Two concurrent first calls race on the mapping's primary key; the loser's
// transaction rolls back and the winner's room id is returned instead.
func (s *Store) GetOrCreateDMRoom(ctx context.Context, a, b int64) (int64, error) {
	lo, hi := SortPair(a, b)

	if id, err := s.GetDMRoomID(ctx, lo, hi); err == nil {
		return id, nil
	} else if !IsNotFound(err) {
		return 0, err
	}

	var roomID int64
	err := s.ExecTx(ctx, func(q *Store) error {
		room, err := q.CreateRoom(ctx, DMRoomName(lo, hi), lo, "")
		if err != nil {
			return err
		}
		if _, err := q.db.Exec(ctx, insertDMRoom, lo, hi, room.ID); err != nil {
			return err
		}
		if err := q.AddParticipant(ctx, room.ID, lo); err != nil {
			return err
		}
		if err := q.AddParticipant(ctx, room.ID, hi); err != nil {
			return err
		}
		roomID = room.ID
		return nil
	})

	if err != nil {
		if db.IsUniqueViolation(err) {
			return s.GetDMRoomID(ctx, lo, hi)
		}
		return 0, err
	}

	return roomID, nil
}
