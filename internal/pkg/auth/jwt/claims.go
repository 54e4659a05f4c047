package jwt

import "github.com/golang-jwt/jwt"

// Identity is the minimal account identity carried in an access token.
// ID is zero when the account has no store row (degraded login).
type Identity struct {
	ID       int64   `json:"id,omitempty"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	City     string  `json:"city"`
}

// Payload is the full claim set of an access token: the registered claims plus the identity.
type Payload struct {
	jwt.StandardClaims

	Identity Identity `json:"identity"`
}
