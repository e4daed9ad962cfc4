/*
Package handler provides the HTTP handlers and routing for the Beam Chat server.

This file holds the authentication endpoints: signup, login, logout, profile
update, and the session check the frontend runs on page load. Sessions are
JWTs in an httpOnly cookie.
*/
package handler

import (
	"bytes"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"beamchat/internal/app/db"
	"beamchat/internal/app/storage"
	"beamchat/internal/app/user"
	"beamchat/internal/pkg/auth/jwt"
	"beamchat/internal/pkg/errs"
	"beamchat/internal/pkg/logx"
	"beamchat/internal/pkg/randx"
	"beamchat/internal/pkg/req"
	"beamchat/internal/pkg/resp"
)

const (
	// MinPasswordLength is the minimum accepted password length in runes.
	MinPasswordLength = 6

	// MaxPasswordLength caps passwords to keep bcrypt input bounded.
	MaxPasswordLength = 72

	// MaxFullNameLength caps display names.
	MaxFullNameLength = 80
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SignupInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// HandleSignup creates a new account, hashes the password with bcrypt, and
// issues the session cookie so the user is signed in immediately.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Email = strings.ToLower(strings.TrimSpace(input.Email))
		input.FullName = strings.TrimSpace(input.FullName)

		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		if input.FullName == "" || utf8.RuneCountInString(input.FullName) > MaxFullNameLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidFullName))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < MinPasswordLength || passwordLen > MaxPasswordLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword, MinPasswordLength))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		row, err := deps.DB.CreateUser(r.Context(), input.Email, input.FullName, string(hashedPassword))
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("signup conflict: email already registered", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := issueSession(w, deps, row.ID); err != nil {
			logx.Error(err, "failed to issue session after signup")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": publicUser(deps, row),
		})
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues the session cookie.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		row, err := deps.DB.GetUserByEmail(r.Context(), input.Email)
		if err != nil {
			logx.Warn("login: user fetch failed", "email", input.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "email", input.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := issueSession(w, deps, row.ID); err != nil {
			logx.Error(err, "login: session issue failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": publicUser(deps, row),
		})
	}
}

// HandleLogout clears the session cookie.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, jwt.ClearedSessionCookie(deps.Config.Environment == "development"))
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleCheckAuth returns the current account for a valid session, letting
// the frontend restore its state on page load.
func HandleCheckAuth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		row, err := deps.DB.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			logx.Warn("check_auth: user not found", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": publicUser(deps, row),
		})
	}
}

type UpdateProfileInput struct {
	// ProfilePic is a base64 data URI of the new avatar.
	ProfilePic string `json:"profilePic"`
}

// HandleUpdateProfile uploads a new avatar to object storage and stores its
// URL on the account.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ProfilePic == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		img, customErr := storage.ParseImageDataURI(input.ProfilePic)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		current, err := deps.DB.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			logx.Warn("update_profile: user not found", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		key := randx.ObjectKey("avatars", identity.UserID, img.Ext)
		if err := deps.Storage.Upload(r.Context(), key, img.MIMEType, bytes.NewReader(img.Data)); err != nil {
			logx.Error(err, "avatar upload failed", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		row, err := deps.DB.UpdateProfilePic(r.Context(), identity.UserID, deps.PublicURL(key))
		if err != nil {
			logx.Error(err, "failed to store avatar URL", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// The old avatar is unreferenced now; reclaim it best-effort.
		if oldKey, ok := deps.ObjectKeyFromURL(current.ProfilePic); ok && oldKey != key {
			if err := deps.Storage.Delete(r.Context(), oldKey); err != nil {
				logx.Warn("failed to delete superseded avatar", "user_id", identity.UserID, "key", oldKey)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": publicUser(deps, row),
		})
	}
}

// issueSession signs a session token for userID and sets the cookie.
func issueSession(w http.ResponseWriter, deps *AppDeps, userID string) error {
	token, err := jwt.GenerateToken(userID, deps.Config.JWTSecret, jwt.SessionExpiration)
	if err != nil {
		return err
	}

	http.SetCookie(w, jwt.SessionCookie(token, jwt.SessionExpiration, deps.Config.Environment == "development"))
	return nil
}

// publicUser converts a db row to the client-facing account shape.
func publicUser(deps *AppDeps, row db.UserRow) user.User {
	u := row.ToUser()
	u.ProfilePic = deps.PublicURL(u.ProfilePic)
	return u
}
