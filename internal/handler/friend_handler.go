/*
Package handler provides HTTP handler functions for the friend workflow:
requests, accept/reject and the friend list.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/msshub-mirror/chat-app/internal/app/db"
	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/errs"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/req"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

type FriendRequestInput struct {
	Username string `json:"username"`
}

// HandleSendFriendRequest creates a pending friend request addressed to the
// named user.
func HandleSendFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input FriendRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		recipient, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to look up friend request recipient", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if recipient.ID == identity.UserID {
			resp.RespondError(w, r, errs.NewError(errs.ErrSelfFriendRequest))
			return
		}

		areFriends, err := deps.Store.AreFriends(r.Context(), identity.UserID, recipient.ID)
		if err != nil {
			logx.Error(err, "failed to check friendship", "user_id", identity.UserID, "peer_id", recipient.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if areFriends {
			resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestExists))
			return
		}

		if err := deps.Store.CreateFriendRequest(r.Context(), identity.UserID, recipient.ID); err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestExists))
				return
			}
			logx.Error(err, "failed to create friend request", "user_id", identity.UserID, "peer_id", recipient.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, nil)
	}
}

// HandleListFriendRequests returns the caller's incoming pending requests,
// oldest first.
func HandleListFriendRequests(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requests, err := deps.Store.ListIncomingRequests(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list friend requests", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(requests))
		for _, fr := range requests {
			out = append(out, map[string]any{
				"id":        fr.ID,
				"userId":    fr.RequesterID,
				"username":  fr.Username,
				"nickname":  fr.Nickname,
				"createdAt": fr.CreatedAt,
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"requests": out})
	}
}

// requestIDParam parses the {id} URL parameter of friend request routes.
func requestIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// HandleAcceptFriendRequest records the friendship and flips the request
// status in one transaction. Only the recipient of a pending request can
// accept it; anything else reads as not found.
func HandleAcceptFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requestID, ok := requestIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		err := deps.Store.ExecTx(r.Context(), func(q *store.Store) error {
			requester, err := q.GetPendingRequest(r.Context(), requestID, identity.UserID)
			if err != nil {
				return err
			}

			if err := q.InsertFriendship(r.Context(), requester, identity.UserID); err != nil {
				return err
			}

			return q.MarkRequestAccepted(r.Context(), requestID)
		})

		if err != nil {
			if store.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFriendRequestNotFound))
				return
			}
			logx.Error(err, "failed to accept friend request", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondNoContent(w, r)
	}
}

// HandleRejectFriendRequest deletes the request. Rejection keeps no audit
// trail; the requester may ask again later.
func HandleRejectFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		requestID, ok := requestIDParam(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.DeleteFriendRequest(r.Context(), requestID, identity.UserID); err != nil {
			logx.Error(err, "failed to reject friend request", "request_id", requestID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondNoContent(w, r)
	}
}

// HandleListFriends returns the caller's friends ordered by user id.
func HandleListFriends(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		friends, err := deps.Store.ListFriends(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list friends", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		out := make([]map[string]any, 0, len(friends))
		for _, m := range friends {
			out = append(out, memberResponse(m))
		}

		resp.RespondSuccess(w, r, map[string]any{"friends": out})
	}
}
