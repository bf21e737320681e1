package handler

import (
	"github.com/msshub-mirror/chat-app/internal/app/chat"
	"github.com/msshub-mirror/chat-app/internal/app/storage"
	"github.com/msshub-mirror/chat-app/internal/app/store"
	"github.com/msshub-mirror/chat-app/internal/configs"
)

// AppDeps bundles the shared services handlers need.
type AppDeps struct {
	Hub            *chat.Hub
	Store          *store.Store
	Config         *configs.AppConfig
	StorageService storage.StorageService
}

// FullAssetURL resolves a stored avatar key to its public URL.
func (d *AppDeps) FullAssetURL(key string) string {
	return storage.PublicURL(d.Config.S3PublicBaseURL, key)
}

// ChatDeps derives the dependency set of the real-time core.
func (d *AppDeps) ChatDeps() chat.Deps {
	return chat.Deps{
		Hub:          d.Hub,
		Store:        d.Store,
		AssetBaseURL: d.Config.S3PublicBaseURL,
	}
}
