/*
Package errs defines the application's error type and its error-code table.

This file maps every error code to its CustomError template, standardizing the
message and HTTP status used in responses. Codes with no explicit Status
respond with 200 and rely on the business code.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Message and Content Errors
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message must contain text or an image.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrImageInvalid:          {Code: ErrImageInvalid, Message: "Image could not be processed.", Status: http.StatusBadRequest},
	ErrImageTooLarge:         {Code: ErrImageTooLarge, Message: "Image is too large (max %d MB).", Status: http.StatusBadRequest},
	ErrRecipientNotFound:     {Code: ErrRecipientNotFound, Message: "Recipient not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Email is already registered.", Status: http.StatusBadRequest},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Message: "Invalid email address.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be at least %d characters.", Status: http.StatusBadRequest},
	ErrInvalidFullName:    {Code: ErrInvalidFullName, Message: "Full name is required.", Status: http.StatusBadRequest},
	ErrInvalidHandshake:   {Code: ErrInvalidHandshake, Message: "Connection handshake is missing a user id.", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
