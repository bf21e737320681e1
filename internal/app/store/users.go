package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// User is a row of the users table. PasswordHash never leaves the handler layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     string
	AvatarURL    pgtype.Text
	CreatedAt    time.Time
}

const createUser = `
INSERT INTO users (username, password_hash, nickname)
VALUES ($1, $2, $3)
RETURNING id, username, password_hash, nickname, avatar_url, created_at
`

// CreateUser inserts a new account. A unique violation on username surfaces
// as a pg error the caller maps to a conflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, nickname string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, createUser, username, passwordHash, nickname).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, username, password_hash, nickname, avatar_url, created_at
FROM users WHERE id = $1
`

func (s *Store) GetUserByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, getUserByID, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

const getUserByUsername = `
SELECT id, username, password_hash, nickname, avatar_url, created_at
FROM users WHERE username = $1
`

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, getUserByUsername, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

const updateNickname = `UPDATE users SET nickname = $2 WHERE id = $1`

func (s *Store) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	_, err := s.db.Exec(ctx, updateNickname, id, nickname)
	return err
}

const updatePassword = `UPDATE users SET password_hash = $2 WHERE id = $1`

func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := s.db.Exec(ctx, updatePassword, id, passwordHash)
	return err
}

const updateAvatar = `UPDATE users SET avatar_url = $2 WHERE id = $1`

// UpdateAvatar stores the object key of the user's avatar. The full URL is
// derived at response time.
func (s *Store) UpdateAvatar(ctx context.Context, id int64, avatarKey string) error {
	_, err := s.db.Exec(ctx, updateAvatar, id, pgtype.Text{String: avatarKey, Valid: avatarKey != ""})
	return err
}
