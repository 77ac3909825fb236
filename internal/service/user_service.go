package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id int64) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest describes the payload for creating accounts.
type CreateUserRequest struct {
	Firstname  string          `json:"firstname" validate:"required"`
	Middlename string          `json:"middlename"`
	Lastname   string          `json:"lastname" validate:"required"`
	Username   string          `json:"username" validate:"required,min=3"`
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8"`
	Role       models.UserRole `json:"role" validate:"required"`
}

// UpdateUserRequest updates mutable fields on a user. Password is optional;
// when empty the stored hash is left untouched.
type UpdateUserRequest struct {
	Firstname  string              `json:"firstname" validate:"required"`
	Middlename string              `json:"middlename"`
	Lastname   string              `json:"lastname" validate:"required"`
	Username   string              `json:"username" validate:"required,min=3"`
	Email      string              `json:"email" validate:"required,email"`
	Password   string              `json:"password" validate:"omitempty,min=8"`
	Role       models.UserRole     `json:"role" validate:"required"`
	Status     models.RecordStatus `json:"status" validate:"required,oneof=active inactive"`
}

type userListPayload struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// UserService orchestrates account management workflows.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates a new user service instance.
func NewUserService(repo userRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated users, served from cache when possible.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	key := fmt.Sprintf("users:list:%s:%s:%s:%d:%d:%s:%s", filter.Role, filter.Status, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var payload userListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		return payload.Users, models.NewPagination(filter.Page, filter.PageSize, payload.Total), nil
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	_ = s.cache.Set(ctx, key, userListPayload{Users: users, Total: total}, 0)

	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user's profile projection by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserProfile, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// Create registers a new account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID int64) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Firstname:    req.Firstname,
		Middlename:   req.Middlename,
		Lastname:     req.Lastname,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       models.StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.audit(ctx, actorID, models.AuditActionCreate, user.ID)
	_ = s.cache.Invalidate(ctx, "users:*")
	return profileOf(user), nil
}

// Update modifies an account, rehashing the password only when one is supplied.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest, actorID int64) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already taken")
	}

	user.Firstname = req.Firstname
	user.Middlename = req.Middlename
	user.Lastname = req.Lastname
	user.Username = req.Username
	user.Email = req.Email
	user.Role = req.Role
	user.Status = req.Status

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.audit(ctx, actorID, models.AuditActionUpdate, user.ID)
	_ = s.cache.Invalidate(ctx, "users:*")
	return profileOf(user), nil
}

// Deactivate soft-deletes an account so logins stop without losing history.
func (s *UserService) Deactivate(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot deactivate your own account")
	}

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	s.audit(ctx, actorID, models.AuditActionDelete, id)
	_ = s.cache.Invalidate(ctx, "users:*")
	return nil
}

func (s *UserService) find(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) audit(ctx context.Context, actorID int64, action models.AuditAction, resourceID int64) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
	}
	if actorID > 0 {
		log.UserID = &actorID
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}

func profileOf(user *models.User) *models.UserProfile {
	return &models.UserProfile{
		ID:         user.ID,
		Firstname:  user.Firstname,
		Middlename: user.Middlename,
		Lastname:   user.Lastname,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Status:     user.Status,
	}
}
