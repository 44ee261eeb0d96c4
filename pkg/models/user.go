package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// User 已认证的调用方；令牌只携带用户ID（可选邮箱）
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// TokenClaims represents the JWT token claims.
// The issuing service puts the user id in the "id" claim; "sub" is accepted as a fallback.
type TokenClaims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ResolveUserID returns the user id carried by the claims.
func (c *TokenClaims) ResolveUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
