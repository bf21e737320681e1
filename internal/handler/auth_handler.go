/*
Package handler provides HTTP handler functions for account registration and login.
*/
package handler

import (
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/msshub-mirror/chat-app/internal/app/db"
	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/errs"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/req"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9]{3,32}$`)

// userResponse is the public profile shape returned by auth and profile endpoints.
func userResponse(deps *AppDeps, u store.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"username":  u.Username,
		"nickname":  u.Nickname,
		"avatarUrl": deps.FullAssetURL(u.AvatarURL.String),
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and joins it to the default General
// room in the same transaction, then issues a session token.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// New accounts start with the username as nickname.
		var created store.User
		err = deps.Store.ExecTx(r.Context(), func(q *store.Store) error {
			u, err := q.CreateUser(r.Context(), input.Username, string(hashedPassword), input.Username)
			if err != nil {
				return err
			}

			generalID, err := q.GetGeneralRoomID(r.Context())
			if err != nil {
				return err
			}

			if err := q.AddParticipant(r.Context(), generalID, u.ID); err != nil {
				return err
			}

			created = u
			return nil
		})

		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		payload := &jwt.Payload{
			UserID:   created.ID,
			Nickname: created.Nickname,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, map[string]any{
			"token": tokenString,
			"user":  userResponse(deps, created),
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		dbUser, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			logx.Warn("login: user fetch failed", "username", input.Username, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		payload := &jwt.Payload{
			UserID:   dbUser.ID,
			Nickname: dbUser.Nickname,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  userResponse(deps, dbUser),
		})
	}
}
