package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"beamchat/internal/configs"
)

func newURLTestDeps() *AppDeps {
	return &AppDeps{
		Config: &configs.AppConfig{
			S3PublicBaseURL: "https://media.example.com/beamchat",
		},
	}
}

func TestPublicURLComposesKeys(t *testing.T) {
	req := require.New(t)
	deps := newURLTestDeps()

	req.Equal("https://media.example.com/beamchat/avatars/u1/a.png", deps.PublicURL("avatars/u1/a.png"))
	req.Equal("https://media.example.com/beamchat/avatars/u1/a.png", deps.PublicURL("/avatars/u1/a.png"))

	// Absolute URLs and empty values pass through untouched.
	req.Equal("https://cdn.other.com/pic.png", deps.PublicURL("https://cdn.other.com/pic.png"))
	req.Equal("", deps.PublicURL(""))
}

func TestObjectKeyFromURLInvertsPublicURL(t *testing.T) {
	req := require.New(t)
	deps := newURLTestDeps()

	key, ok := deps.ObjectKeyFromURL(deps.PublicURL("avatars/u1/a.png"))
	req.True(ok)
	req.Equal("avatars/u1/a.png", key)

	_, ok = deps.ObjectKeyFromURL("https://cdn.other.com/pic.png")
	req.False(ok)

	_, ok = deps.ObjectKeyFromURL("")
	req.False(ok)
}
