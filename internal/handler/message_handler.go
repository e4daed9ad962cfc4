/*
Package handler provides the HTTP handlers and routing for the Beam Chat server.

This file holds the messaging endpoints: the contact directory, conversation
history, and the send path. Sending persists the message first; only after the
insert commits does the realtime hub get a chance to push it.
*/
package handler

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"beamchat/internal/app/chat"
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

// MaxTextLength caps message text, in runes.
const MaxTextLength = 5000

// HandleListContacts returns every other account for the sidebar.
func HandleListContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		rows, err := deps.DB.ListUsersExcept(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list users", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		users := make([]user.User, 0, len(rows))
		for _, row := range rows {
			users = append(users, publicUser(deps, row))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": users,
		})
	}
}

// HandleGetMessages returns the full conversation between the session user
// and the user named in the URL, both directions, oldest first. This is the
// on-demand fetch path that covers messages missed while offline.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		peerID := chi.URLParam(r, "id")
		if _, err := uuid.Parse(peerID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		rows, err := deps.DB.ListMessagesBetween(r.Context(), identity.UserID, peerID)
		if err != nil {
			logx.Error(err, "failed to list conversation", "user_id", identity.UserID, "peer_id", peerID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		messages := make([]chat.MessageEvent, 0, len(rows))
		for _, row := range rows {
			messages = append(messages, messageEvent(row))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": messages,
		})
	}
}

type SendMessageInput struct {
	Text string `json:"text,omitempty"`

	// Image is an optional base64 data URI; it is uploaded to object storage
	// before the message row is written.
	Image string `json:"image,omitempty"`
}

// HandleSendMessage persists a message to the user named in the URL and then
// hands the committed record to the hub for live delivery. An offline
// recipient still gets the row; they will fetch it on their next history load.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		receiverID := chi.URLParam(r, "id")
		if _, err := uuid.Parse(receiverID); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Text = strings.TrimSpace(input.Text)
		if input.Text == "" && input.Image == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageEmpty))
			return
		}

		if utf8.RuneCountInString(input.Text) > MaxTextLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		if _, err := deps.DB.GetUserByID(r.Context(), receiverID); err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRecipientNotFound))
				return
			}
			logx.Error(err, "failed to fetch recipient", "receiver_id", receiverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var imageURL string
		if input.Image != "" {
			img, customErr := storage.ParseImageDataURI(input.Image)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}

			key := randx.ObjectKey("messages", identity.UserID, img.Ext)
			if err := deps.Storage.Upload(r.Context(), key, img.MIMEType, bytes.NewReader(img.Data)); err != nil {
				logx.Error(err, "message image upload failed", "user_id", identity.UserID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			imageURL = deps.PublicURL(key)
		}

		row, err := deps.DB.CreateMessage(r.Context(), identity.UserID, receiverID, input.Text, imageURL)
		if err != nil {
			logx.Error(err, "failed to persist message", "user_id", identity.UserID, "receiver_id", receiverID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// The row is durable; live push is best-effort from here.
		event := messageEvent(row)
		deps.Hub.Deliver(event)

		resp.RespondSuccess(w, r, map[string]any{
			"message": event,
		})
	}
}

// messageEvent converts a persisted row into the wire shape shared by the
// REST responses and the realtime push.
func messageEvent(row db.MessageRow) chat.MessageEvent {
	return chat.MessageEvent{
		ID:         row.ID,
		SenderID:   row.SenderID,
		ReceiverID: row.ReceiverID,
		Text:       row.Text,
		Image:      row.ImageURL,
		CreatedAt:  row.CreatedAt,
	}
}
