package jwt

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// SessionExpiration defines how long a login session token stays valid.
	SessionExpiration = 7 * 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "BeamChat-Server"

	// SessionCookieName is the httpOnly cookie carrying the session token.
	SessionCookieName = "jwt"
)

// GenerateToken creates and signs a session token for the given user id.
func GenerateToken(userID string, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload := &Payload{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates a session token string.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}

// SessionCookie builds the httpOnly session cookie for a signed token.
// Secure is disabled in development so the cookie survives plain HTTP.
func SessionCookie(tokenString string, maxAge time.Duration, isDevelopment bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   !isDevelopment,
	}
}

// ClearedSessionCookie builds an expired session cookie used at logout.
func ClearedSessionCookie(isDevelopment bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   !isDevelopment,
	}
}
