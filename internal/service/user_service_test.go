package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[int64]*models.User
	nextID    int64
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[int64]*models.User)
	}
	m.nextID++
	user.ID = m.nextID
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id int64) error {
	if user, ok := m.users[id]; ok {
		user.Status = models.StatusInactive
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	profile, err := svc.Create(context.Background(), CreateUserRequest{
		Firstname: "Grace",
		Lastname:  "Hopper",
		Username:  "ghopper",
		Email:     "grace@example.com",
		Password:  "compilers1",
		Role:      models.RoleRegistrar,
	}, 99)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, profile.Status)

	stored := repo.users[profile.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "compilers1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("compilers1")))
	assert.NotEmpty(t, repo.auditLogs)
}

func TestUserServiceCreateDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Username: "ghopper", Email: "grace@example.com"},
	}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Firstname: "Grace",
		Lastname:  "Hopper",
		Username:  "ghopper",
		Email:     "other@example.com",
		Password:  "compilers1",
		Role:      models.RoleRegistrar,
	}, 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateKeepsHashWithoutPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("original1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Firstname: "Old", Lastname: "Name", Username: "old", Email: "old@example.com", PasswordHash: string(hash), Role: models.RoleTeacher, Status: models.StatusActive},
	}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	profile, err := svc.Update(context.Background(), 1, UpdateUserRequest{
		Firstname: "New",
		Lastname:  "Name",
		Username:  "newname",
		Email:     "new@example.com",
		Role:      models.RolePrincipal,
		Status:    models.StatusActive,
	}, 99)
	require.NoError(t, err)
	assert.Equal(t, models.RolePrincipal, profile.Role)
	assert.Equal(t, string(hash), repo.users[1].PasswordHash)
}

func TestUserServiceDeactivateSoftDeletes(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Firstname: "Jean", Lastname: "Bartik", Username: "jbartik", Email: "jean@example.com", Role: models.RoleTeacher, Status: models.StatusActive},
	}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, repo.users[1].Status)
	assert.Contains(t, repo.users, int64(1))
}

func TestUserServiceDeactivateSelfBlocked(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Status: models.StatusActive},
	}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetOmitsPasswordHash(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Firstname: "Jean", Lastname: "Bartik", Username: "jbartik", Email: "jean@example.com", PasswordHash: "secret-hash", Role: models.RoleTeacher, Status: models.StatusActive},
	}}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	profile, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "jbartik", profile.Username)
}
