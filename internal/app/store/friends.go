package store

import (
	"context"
	"time"
)

// Friend request lifecycle: pending until accepted; rejection deletes the row.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

// FriendRequest is a row of the friend_requests table joined with the
// requester's public profile for listing.
type FriendRequest struct {
	ID          int64
	RequesterID int64
	Username    string
	Nickname    string
	CreatedAt   time.Time
}

const createFriendRequest = `
INSERT INTO friend_requests (requester, recipient)
VALUES ($1, $2)
`

// CreateFriendRequest inserts a pending request. The (requester, recipient)
// unique constraint rejects duplicates.
func (s *Store) CreateFriendRequest(ctx context.Context, requester, recipient int64) error {
	_, err := s.db.Exec(ctx, createFriendRequest, requester, recipient)
	return err
}

const listIncomingRequests = `
SELECT fr.id, u.id, u.username, u.nickname, fr.created_at
FROM friend_requests fr
JOIN users u ON u.id = fr.requester
WHERE fr.recipient = $1 AND fr.status = $2
ORDER BY fr.created_at ASC
`

// ListIncomingRequests returns the pending requests addressed to the user.
func (s *Store) ListIncomingRequests(ctx context.Context, recipient int64) ([]FriendRequest, error) {
	rows, err := s.db.Query(ctx, listIncomingRequests, recipient, FriendRequestPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []FriendRequest
	for rows.Next() {
		var fr FriendRequest
		if err := rows.Scan(&fr.ID, &fr.RequesterID, &fr.Username, &fr.Nickname, &fr.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, fr)
	}
	return requests, rows.Err()
}

const getPendingRequest = `
SELECT requester, recipient FROM friend_requests
WHERE id = $1 AND recipient = $2 AND status = $3
`

// GetPendingRequest fetches a pending request only if the given user is its
// recipient; anything else reads as not found.
func (s *Store) GetPendingRequest(ctx context.Context, id, recipient int64) (requester int64, err error) {
	var rec int64
	err = s.db.QueryRow(ctx, getPendingRequest, id, recipient, FriendRequestPending).Scan(&requester, &rec)
	return requester, err
}

const markRequestAccepted = `UPDATE friend_requests SET status = $2 WHERE id = $1`

func (s *Store) MarkRequestAccepted(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, markRequestAccepted, id, FriendRequestAccepted)
	return err
}

const deleteFriendRequest = `DELETE FROM friend_requests WHERE id = $1 AND recipient = $2`

// DeleteFriendRequest removes a request addressed to the user. Rejection
// leaves no audit trail.
func (s *Store) DeleteFriendRequest(ctx context.Context, id, recipient int64) error {
	_, err := s.db.Exec(ctx, deleteFriendRequest, id, recipient)
	return err
}

const insertFriendship = `
INSERT INTO friendships (user_lo, user_hi)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

// InsertFriendship records the undirected relation as an ordered pair.
func (s *Store) InsertFriendship(ctx context.Context, a, b int64) error {
	lo, hi := SortPair(a, b)
	_, err := s.db.Exec(ctx, insertFriendship, lo, hi)
	return err
}

const areFriends = `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_lo = $1 AND user_hi = $2)`

// AreFriends is the sole gate for DM room creation.
func (s *Store) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	lo, hi := SortPair(a, b)
	var ok bool
	err := s.db.QueryRow(ctx, areFriends, lo, hi).Scan(&ok)
	return ok, err
}

const listFriends = `
SELECT u.id, u.username, u.nickname
FROM friendships f
JOIN users u ON u.id = CASE WHEN f.user_lo = $1 THEN f.user_hi ELSE f.user_lo END
WHERE f.user_lo = $1 OR f.user_hi = $1
ORDER BY u.id
`

func (s *Store) ListFriends(ctx context.Context, userID int64) ([]Member, error) {
	rows, err := s.db.Query(ctx, listFriends, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Nickname); err != nil {
			return nil, err
		}
		friends = append(friends, m)
	}
	return friends, rows.Err()
}

// SortPair orders two user ids so unordered relations are stored uniquely.
func SortPair(a, b int64) (lo, hi int64) {
	if a < b {
		return a, b
	}
	return b, a
}
