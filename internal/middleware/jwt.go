package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the validated session.
const ContextSessionKey = "currentSession"

// SessionFrom extracts the validated session set by JWT, or nil.
func SessionFrom(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// extractToken reads the access token from the Authorization header first and
// falls back to the session cookie browser clients carry.
func extractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil {
			return token
		}
	}
	return ""
}

// clearSessionCookie expires the session cookie so browsers drop stale tokens.
func clearSessionCookie(c *gin.Context, cookieName string) {
	if cookieName == "" {
		return
	}
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}

// JWT protects API routes by requiring a valid access token in either the
// Authorization header or the session cookie. Expired sessions clear the
// cookie alongside the 401.
func JWT(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		session, err := authService.ValidateToken(token)
		if err != nil {
			var typed *appErrors.Error
			if errors.As(err, &typed) && typed.Code == appErrors.ErrSessionExpired.Code {
				clearSessionCookie(c, cookieName)
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// OptionalJWT attaches the session when a valid token is present but never blocks.
func OptionalJWT(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		session, err := authService.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}
