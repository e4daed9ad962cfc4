package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims carried by a Beam Chat session token.
type Payload struct {
	// StandardClaims embeds the JWT standard fields (Exp, Iat, Iss) used for
	// validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the authenticated user's identifier.
	UserID string `json:"userId"`
}
