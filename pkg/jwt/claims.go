package jwt

import "github.com/golang-jwt/jwt/v5"

// Claims represents JWT custom claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
