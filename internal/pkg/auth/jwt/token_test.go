package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "unit_test_secret"

func TestGenerateAndParseToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-123", testSecret, time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	payload, err := ParseToken(token, testSecret)
	req.NoError(err)
	req.Equal("user-123", payload.UserID)
	req.Equal(TokenIssuer, payload.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-123", testSecret, time.Hour)
	req.NoError(err)

	_, err = ParseToken(token, "a_different_secret")
	req.Error(err)
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-123", testSecret, -time.Minute)
	req.NoError(err)

	_, err = ParseToken(token, testSecret)
	req.Error(err)
}

func TestSessionCookieFlags(t *testing.T) {
	req := require.New(t)

	cookie := SessionCookie("token-value", SessionExpiration, false)
	req.Equal(SessionCookieName, cookie.Name)
	req.Equal("token-value", cookie.Value)
	req.True(cookie.HttpOnly)
	req.True(cookie.Secure)
	req.Equal(int(SessionExpiration.Seconds()), cookie.MaxAge)

	devCookie := SessionCookie("token-value", SessionExpiration, true)
	req.False(devCookie.Secure)

	cleared := ClearedSessionCookie(true)
	req.Equal(SessionCookieName, cleared.Name)
	req.Empty(cleared.Value)
	req.Negative(cleared.MaxAge)
}
