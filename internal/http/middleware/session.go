package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/auth"
)

// userIDKey is the Gin context key holding the authenticated caller's uid.
// Logger and KeyByUserOrIP read the same key.
const userIDKey = "userID"

// SessionParser turns a cookie value into a uid. auth.SessionCodec implements it.
type SessionParser interface {
	Parse(token string) (string, error)
}

// Session resolves the caller from the session cookie once per request and
// stores the uid under "userID". A missing or invalid cookie leaves the
// request anonymous; it is never an error at this layer.
func Session(p SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(auth.CookieName); err == nil && raw != "" {
			if uid, err := p.Parse(raw); err == nil {
				c.Set(userIDKey, uid)
			} else {
				LoggerFrom(c).Debug().Err(err).Msg("session cookie rejected")
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated uid, or "" for anonymous callers.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// RequireSession answers 401 unless Session resolved a caller.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			msg := "authentication required"
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    msg,
				"error":      msg,
			})
			return
		}
		c.Next()
	}
}
