/*
Package handler provides HTTP handler functions for room management, history
reads and DM room resolution.
*/
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/errs"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/randx"
	"github.com/msshub-mirror/chat-app/internal/pkg/req"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

const maxRoomNameRunes = 64

// roomResponse is the room shape returned by room endpoints. The invite token
// is only ever shown to members, which every room endpoint guarantees.
func roomResponse(room store.Room) map[string]any {
	return map[string]any{
		"id":          room.ID,
		"name":        room.Name,
		"inviteToken": room.InviteToken.String,
	}
}

func memberResponse(m store.Member) map[string]any {
	return map[string]any{
		"id":       m.ID,
		"username": m.Username,
		"nickname": m.Nickname,
	}
}

// roomIDParam parses the {id} URL parameter.
func roomIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// HandleListRooms returns every room the caller participates in, ordered by id.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		rooms, err := deps.Store.ListRoomsForUser(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list rooms", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, roomResponse(room))
		}

		resp.RespondSuccess(w, r, map[string]any{"rooms": out})
	}
}

type CreateRoomInput struct {
	Name string `json:"name"`
}

// HandleCreateRoom creates a group room with a fresh invite token and joins
// the creator, in one transaction.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" || utf8.RuneCountInString(name) > maxRoomNameRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNameInvalid))
			return
		}

		inviteToken, err := randx.InviteToken()
		if err != nil {
			logx.Error(err, "failed to generate invite token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var created store.Room
		err = deps.Store.ExecTx(r.Context(), func(q *store.Store) error {
			room, err := q.CreateRoom(r.Context(), name, identity.UserID, inviteToken)
			if err != nil {
				return err
			}

			if err := q.AddParticipant(r.Context(), room.ID, identity.UserID); err != nil {
				return err
			}

			created = room
			return nil
		})

		if err != nil {
			logx.Error(err, "failed to create room", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, map[string]any{"room": roomResponse(created)})
	}
}

// HandleRoomHistory returns the last stored messages of a room in ascending
// order. Membership is required; history is never readable from outside.
func HandleRoomHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID, ok := roomIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		isMember, err := deps.Store.IsParticipant(r.Context(), roomID, identity.UserID)
		if err != nil {
			logx.Error(err, "failed to check room membership", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !isMember {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRoomParticipant))
			return
		}

		messages, err := deps.Store.ListRecentMessages(r.Context(), roomID)
		if err != nil {
			logx.Error(err, "failed to read room history", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			out = append(out, map[string]any{
				"id":        m.ID,
				"roomId":    m.RoomID,
				"userId":    m.UserID,
				"nickname":  m.Nickname,
				"avatarUrl": deps.FullAssetURL(m.AvatarURL.String),
				"content":   m.Content,
				"createdAt": m.CreatedAt,
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": out})
	}
}

// HandleListParticipants returns the member roster of a room the caller
// belongs to.
func HandleListParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID, ok := roomIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		isMember, err := deps.Store.IsParticipant(r.Context(), roomID, identity.UserID)
		if err != nil {
			logx.Error(err, "failed to check room membership", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !isMember {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRoomParticipant))
			return
		}

		members, err := deps.Store.ListParticipants(r.Context(), roomID)
		if err != nil {
			logx.Error(err, "failed to list participants", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(members))
		for _, m := range members {
			out = append(out, memberResponse(m))
		}

		resp.RespondSuccess(w, r, map[string]any{"participants": out})
	}
}

type InviteToRoomInput struct {
	Username string `json:"username"`
}

// HandleInviteToRoom adds another user to a room the caller belongs to.
// Idempotent: inviting an existing member succeeds without effect.
func HandleInviteToRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID, ok := roomIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input InviteToRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		isMember, err := deps.Store.IsParticipant(r.Context(), roomID, identity.UserID)
		if err != nil {
			logx.Error(err, "failed to check room membership", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !isMember {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotRoomParticipant))
			return
		}

		invitee, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to look up invitee", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Store.AddParticipant(r.Context(), roomID, invitee.ID); err != nil {
			logx.Error(err, "failed to add participant", "room_id", roomID, "user_id", invitee.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondNoContent(w, r)
	}
}

type JoinRoomInput struct {
	InviteToken string `json:"inviteToken"`
}

// HandleJoinRoom is the self-service join used by invite links. Rooms that
// carry an invite token require the matching token; rooms without one (the
// default room) are open to any authenticated user.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID, ok := roomIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input JoinRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		room, err := deps.Store.GetRoomByID(r.Context(), roomID)
		if err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
				return
			}
			logx.Error(err, "failed to load room", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if room.InviteToken.Valid {
			if !randx.IsValidInviteToken(input.InviteToken) || input.InviteToken != room.InviteToken.String {
				resp.RespondError(w, r, errs.NewError(errs.ErrInviteTokenInvalid))
				return
			}
		}

		if err := deps.Store.AddParticipant(r.Context(), roomID, identity.UserID); err != nil {
			logx.Error(err, "failed to join room", "room_id", roomID, "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"room": roomResponse(room)})
	}
}

type CreateDMInput struct {
	UserID int64 `json:"userId"`
}

// HandleCreateDM resolves the DM room for the caller and a friend, creating
// it on first use. Repeated and concurrent calls resolve to the same room.
func HandleCreateDM(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input CreateDMInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.UserID <= 0 || input.UserID == identity.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		areFriends, err := deps.Store.AreFriends(r.Context(), identity.UserID, input.UserID)
		if err != nil {
			logx.Error(err, "failed to check friendship", "user_id", identity.UserID, "peer_id", input.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !areFriends {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotFriends))
			return
		}

		roomID, err := deps.Store.GetOrCreateDMRoom(r.Context(), identity.UserID, input.UserID)
		if err != nil {
			logx.Error(err, "failed to resolve dm room", "user_id", identity.UserID, "peer_id", input.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		room, err := deps.Store.GetRoomByID(r.Context(), roomID)
		if err != nil {
			logx.Error(err, "failed to load dm room", "room_id", roomID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"room": roomResponse(room)})
	}
}
