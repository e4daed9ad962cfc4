package handler

import (
	"fmt"
	"strings"

	"beamchat/internal/app/chat"
	"beamchat/internal/app/db"
	"beamchat/internal/app/storage"
	"beamchat/internal/configs"
)

// AppDeps bundles the collaborators the handlers need.
type AppDeps struct {
	Hub     *chat.Hub
	Config  *configs.AppConfig
	Storage storage.StorageService
	DB      *db.Queries
}

// PublicURL composes a stored object key into the client-facing URL. Values
// that are already absolute URLs pass through unchanged.
func (d *AppDeps) PublicURL(key string) string {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(d.Config.S3PublicBaseURL, "/"), strings.TrimLeft(key, "/"))
}

// ObjectKeyFromURL inverts PublicURL: it recovers the storage key from a URL
// that points into this deployment's bucket. URLs hosted elsewhere report false.
func (d *AppDeps) ObjectKeyFromURL(url string) (string, bool) {
	base := strings.TrimRight(d.Config.S3PublicBaseURL, "/") + "/"
	key, ok := strings.CutPrefix(url, base)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
