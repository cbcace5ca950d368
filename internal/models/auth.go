package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by a session token. Subject mirrors Email.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
