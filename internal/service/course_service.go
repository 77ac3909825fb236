package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ListByFaculty(ctx context.Context, term string, facultyID int64) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
	ListFaculty(ctx context.Context) ([]models.FacultyMember, error)
	CountAssignments(ctx context.Context, id int64) (int, error)
}

type facultyReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// CreateCourseRequest describes the payload for creating courses.
type CreateCourseRequest struct {
	Term        string `json:"term" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	FacultyID   int64  `json:"faculty_id" validate:"required,gt=0"`
}

// UpdateCourseRequest updates mutable fields on a course.
type UpdateCourseRequest struct {
	Term        string `json:"term" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	FacultyID   int64  `json:"faculty_id" validate:"required,gt=0"`
}

type courseListPayload struct {
	Courses []models.Course `json:"courses"`
	Total   int             `json:"total"`
}

// CourseService orchestrates the course catalog workflows.
type CourseService struct {
	repo      courseRepository
	users     facultyReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service instance.
func NewCourseService(repo courseRepository, users facultyReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

// List returns paginated courses, served from cache when possible.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	key := fmt.Sprintf("courses:list:%s:%d:%s:%d:%d:%s:%s", filter.Term, filter.FacultyID, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var payload courseListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		return payload.Courses, models.NewPagination(filter.Page, filter.PageSize, payload.Total), nil
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	_ = s.cache.Set(ctx, key, courseListPayload{Courses: courses, Total: total}, 0)

	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListByFaculty returns the courses one teacher holds in a term.
func (s *CourseService) ListByFaculty(ctx context.Context, term string, facultyID int64) ([]models.Course, error) {
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is required")
	}
	if facultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty id is required")
	}

	courses, err := s.repo.ListByFaculty(ctx, term, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty courses")
	}
	return courses, nil
}

// ListFaculty returns active teachers for course assignment dropdowns.
func (s *CourseService) ListFaculty(ctx context.Context) ([]models.FacultyMember, error) {
	const key = "courses:faculty"

	var faculty []models.FacultyMember
	if hit, _ := s.cache.Get(ctx, key, &faculty); hit {
		return faculty, nil
	}

	faculty, err := s.repo.ListFaculty(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}

	_ = s.cache.Set(ctx, key, faculty, 0)
	return faculty, nil
}

// Create adds a course, resolving the faculty display name from the teacher record.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	teacher, err := s.resolveTeacher(ctx, req.FacultyID)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Term:            req.Term,
		Title:           req.Title,
		Description:     req.Description,
		FacultyID:       teacher.ID,
		FacultyFullName: teacher.FullName(),
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	_ = s.cache.Invalidate(ctx, "courses:*")
	return course, nil
}

// Update modifies a course record.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	teacher, err := s.resolveTeacher(ctx, req.FacultyID)
	if err != nil {
		return nil, err
	}

	course.Term = req.Term
	course.Title = req.Title
	course.Description = req.Description
	course.FacultyID = teacher.ID
	course.FacultyFullName = teacher.FullName()

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	_ = s.cache.Invalidate(ctx, "courses:*")
	return course, nil
}

// Delete removes a course that no student assignment references.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	count, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignments")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has student assignments")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	_ = s.cache.Invalidate(ctx, "courses:*")
	return nil
}

func (s *CourseService) resolveTeacher(ctx context.Context, id int64) (*models.User, error) {
	teacher, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty member must have the teacher role")
	}
	if teacher.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty member is inactive")
	}
	return teacher, nil
}
