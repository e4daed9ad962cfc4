package req

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"beamchat/internal/pkg/errs"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func bind(t *testing.T, contentType, body string) *errs.CustomError {
	t.Helper()

	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	var dst loginInput
	return BindJSON(w, r, &dst)
}

func TestBindJSONAcceptsWellFormedBody(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"a@b.c","password":"secret"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()

	var dst loginInput
	customErr := BindJSON(w, r, &dst)
	req.Nil(customErr)
	req.Equal("a@b.c", dst.Email)
	req.Equal("secret", dst.Password)
}

func TestBindJSONRejectsWrongContentType(t *testing.T) {
	customErr := bind(t, "text/plain", `{"email":"a@b.c"}`)
	require.NotNil(t, customErr)
	require.Equal(t, errs.ErrUnsupportedMediaType, customErr.Code)
}

func TestBindJSONRejectsUnknownFields(t *testing.T) {
	customErr := bind(t, "application/json", `{"email":"a@b.c","admin":true}`)
	require.NotNil(t, customErr)
	require.Equal(t, errs.ErrInvalidJSONFormat, customErr.Code)
}

func TestBindJSONRejectsTrailingContent(t *testing.T) {
	customErr := bind(t, "application/json", `{"email":"a@b.c"}{"email":"x@y.z"}`)
	require.NotNil(t, customErr)
	require.Equal(t, errs.ErrExtraContentInBody, customErr.Code)
}

func TestBindJSONRejectsMalformedJSON(t *testing.T) {
	customErr := bind(t, "application/json", `{"email":`)
	require.NotNil(t, customErr)
	require.Equal(t, errs.ErrInvalidJSONFormat, customErr.Code)
}
