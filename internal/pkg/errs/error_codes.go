/*
Package errs defines the application's error type and its error-code table.

The constants below identify specific business and system failures both in
server logs and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates the client exceeded the request rate limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Message and Content Errors
const (
	// ErrMessageEmpty indicates a send request carrying neither text nor an image.
	ErrMessageEmpty = 2201

	// ErrMessageContentTooLong indicates message text exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrImageInvalid indicates the supplied image data could not be decoded or
	// is not one of the permitted image formats.
	ErrImageInvalid = 2203

	// ErrImageTooLarge indicates the decoded image exceeded the size limit.
	ErrImageTooLarge = 2204

	// ErrRecipientNotFound indicates the addressed user does not exist.
	ErrRecipientNotFound = 2205
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = 3002

	// ErrUserAlreadyExists indicates a signup with an email already in use.
	ErrUserAlreadyExists = 3003

	// ErrInvalidEmail indicates a malformed email address at signup.
	ErrInvalidEmail = 3004

	// ErrInvalidPassword indicates a password outside the allowed length range.
	ErrInvalidPassword = 3005

	// ErrInvalidFullName indicates a missing or overlong display name.
	ErrInvalidFullName = 3006

	// ErrInvalidHandshake indicates a websocket handshake without a usable user id.
	ErrInvalidHandshake = 3007

	// ErrUserNotFound indicates the referenced user record does not exist.
	ErrUserNotFound = 3008
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
