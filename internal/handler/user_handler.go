/*
Package handler provides HTTP handler functions for the authenticated user's profile.
*/
package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/errs"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/req"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

const maxNicknameRunes = 32

// avatarExtensions maps the accepted sniffed content types to object key extensions.
var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// HandleGetMe returns the current authenticated user's profile.
func HandleGetMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		dbUser, err := deps.Store.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			logx.Warn("get_me: user not found", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": userResponse(deps, dbUser),
		})
	}
}

type UpdateNicknameInput struct {
	Nickname string `json:"nickname"`
}

// HandleUpdateNickname changes the display name. Messages sent after the
// change carry the new nickname; stored messages are re-joined at read time.
func HandleUpdateNickname(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateNicknameInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		nickname := strings.TrimSpace(input.Nickname)
		if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.UpdateNickname(r.Context(), identity.UserID, nickname); err != nil {
			logx.Error(err, "failed to update nickname", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondNoContent(w, r)
	}
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword verifies the current password and replaces the hash.
// Existing session tokens remain valid until expiry.
func HandleChangePassword(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input ChangePasswordInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		passwordLen := utf8.RuneCountInString(input.NewPassword)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		dbUser, err := deps.Store.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(input.OldPassword)); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrOldPasswordInvalid))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Store.UpdatePassword(r.Context(), identity.UserID, string(hashedPassword)); err != nil {
			logx.Error(err, "failed to update user password in database", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondNoContent(w, r)
	}
}

// HandleUploadAvatar accepts a multipart image upload, stores it in the
// object store under a fresh key, and records the key on the profile. The
// previous object, if any, is deleted asynchronously; a stale avatar is
// harmless, a blocked response is not.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, _, err := r.FormFile("avatar")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAvatarInvalid))
			return
		}
		defer file.Close()

		// Sniff the real content type; the client-declared one is not trusted.
		head := make([]byte, 512)
		n, err := file.Read(head)
		if err != nil && n == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrAvatarInvalid))
			return
		}

		mimeType := http.DetectContentType(head[:n])
		ext, ok := avatarExtensions[mimeType]
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAvatarInvalid))
			return
		}

		if _, err := file.Seek(0, 0); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		dbUser, err := deps.Store.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		avatarKey := "avatars/" + uuid.New().String() + ext

		if err := deps.StorageService.Upload(r.Context(), avatarKey, mimeType, file); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if err := deps.Store.UpdateAvatar(r.Context(), identity.UserID, avatarKey); err != nil {
			logx.Error(err, "failed to record avatar key", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if oldKey := dbUser.AvatarURL.String; oldKey != "" && !strings.HasPrefix(oldKey, "http") {
			go func() {
				if err := deps.StorageService.Delete(context.Background(), oldKey); err != nil {
					logx.Warn("failed to delete previous avatar object", "key", oldKey, "error", err)
				}
			}()
		}

		resp.RespondSuccess(w, r, map[string]any{
			"avatarUrl": deps.FullAssetURL(avatarKey),
		})
	}
}
