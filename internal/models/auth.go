package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// CredentialsRequest is the body of /signup and /signin.
type CredentialsRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenRequest is the body of /refresh-token and /verify-token.
type TokenRequest struct {
	Token string `json:"token" form:"token" validate:"required"`
}

// SignInResult carries the freshly issued session token.
type SignInResult struct {
	Token string `json:"token"`
}

// JWTClaims is the payload of a session token. Only subject identity is carried;
// the registered ID (jti) makes every issued token string unique.
type JWTClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
