package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xyz-school/portal-api/internal/middleware"
	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
	"github.com/xyz-school/portal-api/pkg/config"
)

type fakeAuthRepo struct {
	user *models.User
}

func (f *fakeAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.user != nil && f.user.Username == username {
		copy := *f.user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		copy := *f.user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newAuthHandlerFixture(t *testing.T) *AuthHandler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeAuthRepo{user: &models.User{
		ID:           7,
		Username:     "registrar",
		PasswordHash: string(hash),
		Role:         models.RoleRegistrar,
		Status:       models.StatusActive,
	}}

	authService := service.NewAuthService(repo, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "handler-test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "portal-api-test",
	})
	return NewAuthHandler(authService, config.SessionConfig{CookieName: "xyz_token", CookieTTL: 24 * time.Hour})
}

func TestAuthHandlerLoginSetsSessionCookie(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"registrar","password":"password1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "xyz_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "registrar", envelope.Data.User.Username)
	assert.NotEmpty(t, envelope.Data.Token)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"registrar","password":"wrong-pass"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	c.Set(middleware.ContextSessionKey, &models.Session{UserID: 7, Role: models.RoleRegistrar, Username: "registrar"})

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "xyz_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthHandlerMeWithoutSession(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
