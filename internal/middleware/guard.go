package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
)

// areaAccess maps each role to the browser areas it may enter. Superadmin
// passes everywhere.
var areaAccess = map[models.UserRole][]string{
	models.RoleSuperAdmin: {"/superadmin", "/administrative", "/faculty", "/author"},
	models.RolePrincipal:  {"/administrative"},
	models.RoleRegistrar:  {"/administrative"},
	models.RoleTeacher:    {"/faculty"},
	models.RoleAuthor:     {"/author"},
}

// landingPath returns where a role lands after login.
func landingPath(role models.UserRole) string {
	switch role {
	case models.RoleSuperAdmin:
		return "/superadmin"
	case models.RolePrincipal, models.RoleRegistrar:
		return "/administrative"
	case models.RoleTeacher:
		return "/faculty"
	case models.RoleAuthor:
		return "/author"
	default:
		return "/"
	}
}

// roleMayEnter reports whether the role is allowed into the area prefix.
func roleMayEnter(role models.UserRole, area string) bool {
	for _, allowed := range areaAccess[role] {
		if allowed == area {
			return true
		}
	}
	return false
}

// Guard gatekeeps the browser-facing area routes. Visitors without a session
// are sent back to the login page; expired sessions clear the cookie first;
// authenticated users straying into another role's area are bounced home.
// Requests to the login path with a live session skip straight to the role's
// landing page.
func Guard(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		area := areaOf(path)

		token := extractToken(c, cookieName)
		var session *models.Session
		if token != "" {
			validated, err := authService.ValidateToken(token)
			if err != nil {
				clearSessionCookie(c, cookieName)
			} else {
				session = validated
			}
		}

		if area == "" {
			// Login page: forward live sessions to their landing area.
			if session != nil {
				c.Redirect(http.StatusFound, landingPath(session.Role))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if session == nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		if !roleMayEnter(session.Role, area) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// areaOf extracts the guarded area prefix of a path, or "" for the login page
// and other unguarded paths.
func areaOf(path string) string {
	for _, area := range []string{"/superadmin", "/administrative", "/faculty", "/author"} {
		if path == area || strings.HasPrefix(path, area+"/") {
			return area
		}
	}
	return ""
}
