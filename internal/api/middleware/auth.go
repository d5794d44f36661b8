package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/service"
)

const identityKey = "identity"

// TokenParser validates session tokens.
type TokenParser interface {
	ParseToken(token string) (*service.Identity, error)
}

// Authenticate resolves the session cookie into an identity when it is
// present and valid. It never rejects a request; see RequireAuth.
// Parameters:
//   - tokens: session token validator.
//   - cookieName: name of the session cookie.
// Returns:
//   - gin.HandlerFunc: middleware handler.
func Authenticate(tokens TokenParser, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		id, err := tokens.ParseToken(token)
		if err != nil {
			GetLogger(c).WithError(err).Debug("Ignoring invalid session cookie")
			c.Next()
			return
		}

		c.Set(identityKey, id)
		ctx := logger.SetUserID(c.Request.Context(), id.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(loggerKey, logger.FromContext(ctx))
		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity set by Authenticate.
func CurrentUser(c *gin.Context) (*service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*service.Identity)
	return id, ok && id != nil
}
