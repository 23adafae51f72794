package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the Type claim. A pending token is issued after
// password success but before the second factor and must never be accepted
// where a full session is required.
const (
	TokenTypeSession    = "session"
	TokenTypeMFAPending = "mfa_pending"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
