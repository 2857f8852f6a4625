package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lovenotes/anniversary/internal/sessions"
)

// TokenCookie is the cookie carrying the admin token for browser requests.
const TokenCookie = "admin_token"

// Context keys set by AuthMiddleware.
const (
	ContextClaims    = "claims"
	ContextSessionID = "sid"
	ContextToken     = "token"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrRevoked      = errors.New("session revoked")
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// TokenFromRequest reads 'Bearer <token>' from the Authorization header,
// falling back to the admin cookie.
func TokenFromRequest(c *gin.Context) (string, error) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			return "", errors.New("invalid Authorization header")
		}
		return token, nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", ErrMissingToken
}

// Authenticate verifies raw and returns its claims and session id. Sessions
// revoked at logout are rejected.
func Authenticate(ctx context.Context, ver Verifier, raw string) (map[string]interface{}, string, error) {
	tok, err := ver.Verify(ctx, raw)
	if err != nil {
		return nil, "", err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, "", fmt.Errorf("failed to parse claims: %w", err)
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, "", errors.New("token has no session id")
	}
	revoked, err := sessions.IsSessionRevoked(ctx, sid)
	if err != nil {
		return nil, "", fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, "", ErrRevoked
	}
	return claims, sid, nil
}

// AuthMiddleware returns a Gin middleware that admits requests carrying a
// valid admin token and stores its claims and session id in the context.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, sid, err := Authenticate(c.Request.Context(), ver, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextSessionID, sid)
		c.Set(ContextToken, raw)
		c.Next()
	}
}

// SessionID returns the session id stored by AuthMiddleware.
func SessionID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(ContextSessionID))
}
