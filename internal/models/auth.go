package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload minted by the identity
// collaborator. This service only validates and reads it.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
