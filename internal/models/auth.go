package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose restricts what a signed token may be redeemed for.
type TokenPurpose string

const (
	PurposeSetup   TokenPurpose = "setup"
	PurposeReset   TokenPurpose = "reset"
	PurposeSession TokenPurpose = "session"
)

// TokenClaims is the JWT payload. Subject holds the user id.
type TokenClaims struct {
	Purpose TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *TokenClaims) UserID() string {
	return c.Subject
}

// RequestMeta carries client details recorded in the audit trail.
type RequestMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}
