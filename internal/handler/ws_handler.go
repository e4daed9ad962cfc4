/*
Package handler provides the HTTP handlers and routing for the Beam Chat server.

This file holds the websocket entry point. It rate-limits the upgrade,
extracts the user id from the handshake query, upgrades the connection, and
hands it to the hub, which owns the connection from there.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"beamchat/internal/pkg/errs"
	"beamchat/internal/pkg/limiter"
	"beamchat/internal/pkg/logx"
	"beamchat/internal/pkg/resp"
)

// UserIDQueryParam is the handshake query parameter carrying the user id.
const UserIDQueryParam = "userId"

// HandleWebSocket processes websocket connection requests on /ws.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// The auth collaborator verified this id when it issued the session;
		// the handshake carries it as a query parameter and the core trusts it.
		userID := strings.TrimSpace(r.URL.Query().Get(UserIDQueryParam))
		if userID == "" {
			logx.Warn("WebSocket request rejected: missing userId query parameter")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidHandshake))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established", "user_id", userID)

		// Blocks for the lifetime of the connection.
		if err := deps.Hub.Bind(conn, userID); err != nil {
			logx.Warn("WebSocket bind rejected", "user_id", userID, "error", err)
		}
	}
}
