package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
)

func newJWTRouter(expiry time.Duration) (*gin.Engine, *service.AuthService) {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "jwt-test-secret",
		AccessTokenExpiry: expiry,
		Issuer:            "portal-api-test",
	})

	router := gin.New()
	router.GET("/api/users", JWT(authService, testCookieName), func(c *gin.Context) {
		session := SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"username": session.Username})
	})
	return router, authService
}

func TestJWTRejectsMissingToken(t *testing.T) {
	router, _ := newJWTRouter(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAcceptsBearerHeader(t *testing.T) {
	router, authService := newJWTRouter(time.Hour)
	token, err := authService.IssueAccessToken(&models.User{ID: 1, Username: "registrar", Role: models.RoleRegistrar})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "registrar")
}

func TestJWTAcceptsSessionCookie(t *testing.T) {
	router, authService := newJWTRouter(time.Hour)
	token, err := authService.IssueAccessToken(&models.User{ID: 1, Username: "registrar", Role: models.RoleRegistrar})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func newOptionalJWTRouter(expiry time.Duration) (*gin.Engine, *service.AuthService) {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "jwt-test-secret",
		AccessTokenExpiry: expiry,
		Issuer:            "portal-api-test",
	})

	router := gin.New()
	router.GET("/api/get-user/1", OptionalJWT(authService, testCookieName), func(c *gin.Context) {
		if session := SessionFrom(c); session != nil {
			c.JSON(http.StatusOK, gin.H{"viewer": session.Username})
			return
		}
		c.JSON(http.StatusOK, gin.H{"viewer": "anonymous"})
	})
	return router, authService
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	router, _ := newOptionalJWTRouter(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/get-user/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestOptionalJWTAttachesSession(t *testing.T) {
	router, authService := newOptionalJWTRouter(time.Hour)
	token, err := authService.IssueAccessToken(&models.User{ID: 1, Username: "registrar", Role: models.RoleRegistrar})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/get-user/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "registrar")
}

func TestOptionalJWTIgnoresInvalidToken(t *testing.T) {
	router, _ := newOptionalJWTRouter(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/get-user/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestJWTExpiredTokenClearsCookie(t *testing.T) {
	router, authService := newJWTRouter(-time.Minute)
	token, err := authService.IssueAccessToken(&models.User{ID: 1, Username: "registrar", Role: models.RoleRegistrar})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestRBACForbidsWrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "jwt-test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "portal-api-test",
	})
	token, err := authService.IssueAccessToken(&models.User{ID: 1, Username: "teacher", Role: models.RoleTeacher})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/api/users", JWT(authService, testCookieName), RequireRoles(models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
