/*
Package user defines the representation of a chat participant shared between
the HTTP layer and the realtime core.
*/
package user

import "time"

// User is the public shape of an account, serialized in API responses.
// The password hash never leaves the db package.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`

	// Email is the login identifier, unique across accounts.
	Email string `json:"email"`

	// FullName is the display name shown in the contact list.
	FullName string `json:"fullName"`

	// ProfilePic is the URL of the user's avatar, empty when unset.
	ProfilePic string `json:"profilePic,omitempty"`

	// CreatedAt is the account creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
}
