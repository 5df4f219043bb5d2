package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
)

// UserIDKey is the echo context key holding the authenticated user id
const UserIDKey = "user_id"

// TokenValidator validates an access token and returns its claims
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

type authOptions struct {
	queryToken bool
}

// AuthOption configures EchoAuth
type AuthOption func(*authOptions)

// AllowQueryToken also reads the token from the access_token query parameter.
// Only routes consumed by EventSource need it.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) {
		o.queryToken = true
	}
}

// EchoAuth returns an Echo middleware that validates JWT and sets
// "user_id" (string) into Echo context
func EchoAuth(validator TokenValidator, opts ...AuthOption) echo.MiddlewareFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request(), o.queryToken)
			if token == "" {
				return errors.ErrUnauthenticated()
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				return errors.ErrInvalidToken()
			}

			c.Set(UserIDKey, claims.UserID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id set by EchoAuth
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(UserIDKey).(string)
	return id, ok && id != ""
}

func extractToken(r *http.Request, allowQuery bool) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	if allowQuery {
		if t := r.URL.Query().Get("access_token"); t != "" {
			return t
		}
	}

	// Try cookie as fallback
	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}
