/*
Package handler provides the HTTP handler function for WebSocket connection
upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate
limiting, authenticating the session token before the upgrade, and initiating
the client lifecycle.
*/
package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/msshub-mirror/chat-app/internal/app/chat"
	"github.com/msshub-mirror/chat-app/internal/app/user"
	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/errs"
	"github.com/msshub-mirror/chat-app/internal/pkg/limiter"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

// wsToken extracts the session token from the "token" query parameter or the
// Authorization header. Browser WebSocket clients cannot set headers, so the
// query parameter is the primary channel.
func wsToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection
// requests. The session token is validated before the upgrade; an anonymous
// or invalid request never reaches the real-time core.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := wsToken(r)
		if token == "" {
			logx.Warn("WebSocket request rejected: Missing session token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket request rejected: Invalid session token", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		dbUser, err := deps.Store.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			logx.Warn("WebSocket request rejected: Unknown account", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		currentUser := user.User{
			ID:        dbUser.ID,
			Username:  dbUser.Username,
			Nickname:  dbUser.Nickname,
			AvatarURL: deps.FullAssetURL(dbUser.AvatarURL.String),
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.ChatDeps(), conn, currentUser)

		go client.WritePump()

		logx.Info("WebSocket connection established", "user_id", dbUser.ID)

		client.ReadPump()
	}
}
