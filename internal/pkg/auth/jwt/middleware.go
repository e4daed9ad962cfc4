package jwt

import (
	"context"
	"net/http"

	"beamchat/internal/pkg/logx"
)

// Context key type for the session payload, preventing collisions with other packages.
type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed session Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// SessionExtractorMiddleware reads the session cookie, validates the token,
// and injects the Payload into the request context. It does not reject the
// request itself; handlers that require authentication check the context and
// respond 401 themselves, so public endpoints can share the chain.
func SessionExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				// No session cookie. Continue as anonymous.
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(cookie.Value, secretKey)
			if err != nil {
				// Cookie present but invalid (expired, bad signature).
				logx.Warn("Invalid or expired session token, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext extracts the session Payload from the request context.
// A nil return means the request is anonymous.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
