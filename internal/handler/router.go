/*
Package handler provides the HTTP handlers and routing setup for the chat service.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers
(API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/msshub-mirror/chat-app/internal/pkg/auth/jwt"
	"github.com/msshub-mirror/chat-app/internal/pkg/limiter"
	"github.com/msshub-mirror/chat-app/internal/pkg/logx"
	"github.com/msshub-mirror/chat-app/internal/pkg/resp"
)

const (
	AuthRate  = 0.2
	AuthBurst = 5
	WsRate    = 0.5
	WsBurst   = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WsRate), WsBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "chat-app",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Post("/register", authLimiter.Middleware(HandleRegister(deps)).ServeHTTP)
		api.Post("/login", authLimiter.Middleware(HandleLogin(deps)).ServeHTTP)

		api.Route("/me", func(me chi.Router) {
			me.Get("/", HandleGetMe(deps))
			me.Put("/nickname", HandleUpdateNickname(deps))
			me.Put("/password", HandleChangePassword(deps))
			me.Post("/avatar", HandleUploadAvatar(deps))
		})

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.Get("/", HandleListRooms(deps))
			rooms.Post("/", HandleCreateRoom(deps))
			rooms.Post("/dm", HandleCreateDM(deps))
			rooms.Get("/{id}/messages", HandleRoomHistory(deps))
			rooms.Get("/{id}/participants", HandleListParticipants(deps))
			rooms.Post("/{id}/invite", HandleInviteToRoom(deps))
			rooms.Post("/{id}/join", HandleJoinRoom(deps))
		})

		api.Route("/friend-requests", func(fr chi.Router) {
			fr.Post("/", HandleSendFriendRequest(deps))
			fr.Get("/", HandleListFriendRequests(deps))
			fr.Put("/{id}/accept", HandleAcceptFriendRequest(deps))
			fr.Delete("/{id}", HandleRejectFriendRequest(deps))
		})

		api.Get("/friends", HandleListFriends(deps))
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, wsLimiter))

	return r
}
